package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tboyle/recipe-press/internal/common"
	"github.com/tboyle/recipe-press/internal/retry"
	"github.com/tboyle/recipe-press/internal/runlog"
)

// USDAConfig holds FoodData Central client settings.
type USDAConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// USDAClient queries FoodData Central for per-100g nutrient data.
type USDAClient struct {
	cfg        USDAConfig
	httpClient *http.Client
	policy     retry.Policy
	calls      *runlog.RunLogs
	log        *slog.Logger
}

// NewUSDAClient constructs a client. calls may be nil.
func NewUSDAClient(cfg USDAConfig, policy retry.Policy, calls *runlog.RunLogs, logger *slog.Logger) *USDAClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.nal.usda.gov/fdc/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &USDAClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		calls:      calls,
		log:        logger,
	}
}

// Enabled reports whether an API key was configured.
func (c *USDAClient) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Nutrients holds per-100g values in kcal, grams, and milligrams.
type Nutrients struct {
	Calories float64
	Fat      float64
	Carbs    float64
	Protein  float64
	Fiber    float64
	Sugar    float64
	Sodium   float64 // mg
}

// Scale returns the nutrients for grams of the food.
func (n Nutrients) Scale(grams float64) Nutrients {
	f := grams / 100
	return Nutrients{
		Calories: n.Calories * f,
		Fat:      n.Fat * f,
		Carbs:    n.Carbs * f,
		Protein:  n.Protein * f,
		Fiber:    n.Fiber * f,
		Sugar:    n.Sugar * f,
		Sodium:   n.Sodium * f,
	}
}

// Div divides every nutrient by the serving count.
func (n Nutrients) Div(by float64) Nutrients {
	if by == 0 {
		return n
	}
	return Nutrients{
		Calories: n.Calories / by,
		Fat:      n.Fat / by,
		Carbs:    n.Carbs / by,
		Protein:  n.Protein / by,
		Fiber:    n.Fiber / by,
		Sugar:    n.Sugar / by,
		Sodium:   n.Sodium / by,
	}
}

// Add sums two nutrient sets.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Fat:      n.Fat + o.Fat,
		Carbs:    n.Carbs + o.Carbs,
		Protein:  n.Protein + o.Protein,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
		Sodium:   n.Sodium + o.Sodium,
	}
}

type searchResponse struct {
	Foods []struct {
		FDCID       int    `json:"fdcId"`
		Description string `json:"description"`
	} `json:"foods"`
}

type foodNutrient struct {
	Nutrient struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount float64 `json:"amount"`
}

type foodResponse struct {
	Description   string         `json:"description"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
}

// Lookup searches for the food and returns the top match's per-100g
// nutrients. A miss is reported as common.ErrNotFound.
func (c *USDAClient) Lookup(ctx context.Context, food string) (Nutrients, error) {
	if !c.Enabled() {
		return Nutrients{}, common.NewAppError("USDA_DISABLED", "usda api key not configured", common.ErrConfiguration)
	}

	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("query", food)
	q.Set("pageSize", "10")
	q.Add("dataType", "Foundation")
	q.Add("dataType", "SR Legacy")

	var sr searchResponse
	if err := c.get(ctx, "/foods/search?"+q.Encode(), "usda.search", &sr); err != nil {
		return Nutrients{}, err
	}
	if len(sr.Foods) == 0 {
		return Nutrients{}, common.NewAppError("USDA_NO_MATCH", fmt.Sprintf("no usda match for %q", food), common.ErrNotFound)
	}
	top := sr.Foods[0]
	c.log.Debug("usda.search.match", "query", food, "fdc_id", top.FDCID, "description", top.Description)

	var fr foodResponse
	detail := fmt.Sprintf("/food/%d?api_key=%s", top.FDCID, url.QueryEscape(c.cfg.APIKey))
	if err := c.get(ctx, detail, "usda.food", &fr); err != nil {
		return Nutrients{}, err
	}
	return extractNutrients(fr), nil
}

// FoodData Central nutrient numbers.
const (
	nutrientEnergy  = 1008
	nutrientProtein = 1003
	nutrientFat     = 1004
	nutrientCarbs   = 1005
	nutrientFiber   = 1079
	nutrientSugar   = 2000
	nutrientSodium  = 1093
)

func extractNutrients(fr foodResponse) Nutrients {
	var n Nutrients
	for _, fn := range fr.FoodNutrients {
		amount := fn.Amount
		// normalize to the units the label uses
		switch strings.ToUpper(fn.Nutrient.UnitName) {
		case "UG", "µG":
			amount /= 1000 // -> mg
		}
		name := strings.ToLower(fn.Nutrient.Name)
		switch {
		case fn.Nutrient.ID == nutrientEnergy,
			strings.HasPrefix(name, "energy") && strings.EqualFold(fn.Nutrient.UnitName, "kcal"):
			if n.Calories == 0 {
				n.Calories = amount
			}
		case fn.Nutrient.ID == nutrientProtein, name == "protein":
			n.Protein = amount
		case fn.Nutrient.ID == nutrientFat, strings.HasPrefix(name, "total lipid"):
			n.Fat = amount
		case fn.Nutrient.ID == nutrientCarbs, strings.HasPrefix(name, "carbohydrate"):
			n.Carbs = amount
		case fn.Nutrient.ID == nutrientFiber, strings.HasPrefix(name, "fiber"):
			n.Fiber = amount
		case fn.Nutrient.ID == nutrientSugar, strings.HasPrefix(name, "sugars, total"),
			strings.HasPrefix(name, "total sugars"):
			n.Sugar = amount
		case fn.Nutrient.ID == nutrientSodium, strings.HasPrefix(name, "sodium"):
			n.Sodium = amount
		}
	}
	return n
}

func (c *USDAClient) get(ctx context.Context, endpoint, op string, out any) error {
	rid := uuid.New().String()
	return retry.Do(ctx, c.log, c.policy, op, func(ctx context.Context) error {
		reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + endpoint
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return common.Permanent(err)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.calls.APICall(rid, http.MethodGet, redactKey(reqURL), 0, time.Since(start), http.Header{})
			return fmt.Errorf("usda http error: %w", err)
		}
		defer resp.Body.Close()
		c.calls.APICall(rid, http.MethodGet, redactKey(reqURL), resp.StatusCode, time.Since(start), resp.Header)

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			retryAfter, _ := retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
			statusErr := &retry.HTTPStatusError{
				StatusCode: resp.StatusCode,
				Body:       string(raw),
				RetryAfter: retryAfter,
			}
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return common.Permanent(statusErr)
			}
			return statusErr
		}
		return json.Unmarshal(raw, out)
	})
}

// redactKey keeps the API key out of the call log.
func redactKey(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
