package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/tboyle/recipe-press/internal/recipe"
)

// DefaultServings stands in when the draft carries no parseable serving count.
const DefaultServings = 8

// Lookuper is the slice of the USDA client the resolver needs.
type Lookuper interface {
	Enabled() bool
	Lookup(ctx context.Context, food string) (Nutrients, error)
}

// Resolver produces a per-serving nutrition label for a draft. USDA data is
// preferred; a model estimate covers recipes with no database matches.
type Resolver struct {
	usda   Lookuper
	llm    recipe.Completer
	logger *slog.Logger
}

func NewResolver(usda Lookuper, llm recipe.Completer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{usda: usda, llm: llm, logger: logger}
}

// Resolve fills d.Nutrition in place. It never returns an error; an
// unresolvable label stays empty and the draft carries a warning.
func (r *Resolver) Resolve(ctx context.Context, d *recipe.Draft) {
	start := time.Now()

	if n, matched, total := r.fromUSDA(ctx, d); matched > 0 {
		servings := ParseServings(d.Servings)
		d.Nutrition = formatLabel(n, servings, "usda")
		if matched < total {
			d.Warn(fmt.Sprintf("nutrition: %d of %d ingredients had no database match", total-matched, total))
		}
		r.logger.Info("nutrition.resolve.ok",
			"source", "usda", "matched", matched, "total", total,
			"servings", servings, "elapsed_ms", time.Since(start).Milliseconds())
		return
	}

	if n, ok := r.fromEstimate(ctx, d); ok {
		d.Nutrition = n
		d.Warn("nutrition values are model estimates")
		r.logger.Info("nutrition.resolve.ok", "source", "estimate",
			"elapsed_ms", time.Since(start).Milliseconds())
		return
	}

	d.Warn("nutrition could not be resolved")
	r.logger.Warn("nutrition.resolve.empty", "title", d.Title)
}

func (r *Resolver) fromUSDA(ctx context.Context, d *recipe.Draft) (Nutrients, int, int) {
	var total Nutrients
	matched := 0
	if r.usda == nil || !r.usda.Enabled() || len(d.Ingredients) == 0 {
		return total, 0, len(d.Ingredients)
	}
	for _, line := range d.Ingredients {
		p := ParseIngredient(line)
		if p.Food == "" {
			continue
		}
		n, err := r.usda.Lookup(ctx, p.Food)
		if err != nil {
			r.logger.Debug("nutrition.usda.miss", "food", p.Food, "error", err)
			continue
		}
		total = total.Add(n.Scale(p.Grams()))
		matched++
	}
	return total, matched, len(d.Ingredients)
}

const estimateNutritionPrompt = `You estimate nutrition facts for home recipes. Given a recipe's title,
ingredients, and serving count, reply with JSON holding per-serving values:
"calories" (number, kcal), "fat", "carbs", "protein", "fiber", "sugar" (numbers,
grams), "sodium" (number, milligrams). Respond with JSON only.`

func (r *Resolver) fromEstimate(ctx context.Context, d *recipe.Draft) (recipe.Nutrition, bool) {
	if r.llm == nil || len(d.Ingredients) == 0 {
		return recipe.Nutrition{}, false
	}
	servings := ParseServings(d.Servings)
	user := fmt.Sprintf("Title: %s\nServings: %d\nIngredients:\n", d.Title, servings)
	for _, ing := range d.Ingredients {
		user += "- " + ing + "\n"
	}
	raw, err := r.llm.CompleteJSON(ctx, estimateNutritionPrompt, user)
	if err != nil {
		r.logger.Warn("nutrition.estimate.failed", "error", err)
		return recipe.Nutrition{}, false
	}
	var est struct {
		Calories float64 `json:"calories"`
		Fat      float64 `json:"fat"`
		Carbs    float64 `json:"carbs"`
		Protein  float64 `json:"protein"`
		Fiber    float64 `json:"fiber"`
		Sugar    float64 `json:"sugar"`
		Sodium   float64 `json:"sodium"`
	}
	if err := json.Unmarshal(raw, &est); err != nil {
		r.logger.Warn("nutrition.estimate.decode_failed", "error", err)
		return recipe.Nutrition{}, false
	}
	if est.Calories <= 0 {
		return recipe.Nutrition{}, false
	}
	per := Nutrients{
		Calories: est.Calories, Fat: est.Fat, Carbs: est.Carbs,
		Protein: est.Protein, Fiber: est.Fiber, Sugar: est.Sugar, Sodium: est.Sodium,
	}
	return formatLabel(per, 1, "estimate"), true
}

var leadingIntRE = regexp.MustCompile(`\d+`)

// ParseServings pulls the first integer out of a free-form servings string
// ("24 cookies", "Serves 8-10"). Zero or missing falls back to the default.
func ParseServings(s string) int {
	if m := leadingIntRE.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return n
		}
	}
	return DefaultServings
}

// formatLabel divides recipe totals by servings and renders display strings.
func formatLabel(total Nutrients, servings int, source string) recipe.Nutrition {
	if servings <= 0 {
		servings = DefaultServings
	}
	per := total.Div(float64(servings))
	return recipe.Nutrition{
		Calories: strconv.Itoa(int(per.Calories + 0.5)),
		Fat:      fmt.Sprintf("%.1fg", per.Fat),
		Carbs:    fmt.Sprintf("%.1fg", per.Carbs),
		Protein:  fmt.Sprintf("%.1fg", per.Protein),
		Fiber:    fmt.Sprintf("%.1fg", per.Fiber),
		Sugar:    fmt.Sprintf("%.1fg", per.Sugar),
		Sodium:   fmt.Sprintf("%.0fmg", per.Sodium),
		Source:   source,
	}
}
