package nutrition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tboyle/recipe-press/internal/common"
	"github.com/tboyle/recipe-press/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quietPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, Sleeper: func(time.Duration) {}}
}

const searchBody = `{"foods":[{"fdcId":12345,"description":"Flour, wheat, all-purpose"}]}`

const foodBody = `{"description":"Flour, wheat, all-purpose","foodNutrients":[
  {"nutrient":{"id":1008,"name":"Energy","unitName":"kcal"},"amount":364},
  {"nutrient":{"id":1003,"name":"Protein","unitName":"g"},"amount":10.3},
  {"nutrient":{"id":1004,"name":"Total lipid (fat)","unitName":"g"},"amount":1.0},
  {"nutrient":{"id":1005,"name":"Carbohydrate, by difference","unitName":"g"},"amount":76.3},
  {"nutrient":{"id":1093,"name":"Sodium, Na","unitName":"mg"},"amount":2}
]}`

func newTestUSDA(t *testing.T, handler http.HandlerFunc) *USDAClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewUSDAClient(USDAConfig{BaseURL: srv.URL, APIKey: "test-key"}, quietPolicy(), nil, testLogger())
}

func TestLookup(t *testing.T) {
	c := newTestUSDA(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/foods/search"):
			if got := r.URL.Query().Get("query"); got != "flour" {
				t.Errorf("query = %q", got)
			}
			if got := r.URL.Query()["dataType"]; len(got) != 2 {
				t.Errorf("dataType = %v, want Foundation and SR Legacy", got)
			}
			io.WriteString(w, searchBody)
		case r.URL.Path == "/food/12345":
			io.WriteString(w, foodBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	n, err := c.Lookup(context.Background(), "flour")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if n.Calories != 364 || n.Protein != 10.3 || n.Sodium != 2 {
		t.Errorf("nutrients = %+v", n)
	}
}

func TestLookupNoMatch(t *testing.T) {
	c := newTestUSDA(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"foods":[]}`)
	})
	_, err := c.Lookup(context.Background(), "unobtainium")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupRetriesServerError(t *testing.T) {
	calls := 0
	c := newTestUSDA(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/foods/search") {
			io.WriteString(w, searchBody)
			return
		}
		io.WriteString(w, foodBody)
	})

	if _, err := c.Lookup(context.Background(), "flour"); err != nil {
		t.Fatalf("Lookup after retry: %v", err)
	}
	if calls != 3 { // failed search, retried search, food detail
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestLookupDisabled(t *testing.T) {
	c := NewUSDAClient(USDAConfig{}, quietPolicy(), nil, testLogger())
	if c.Enabled() {
		t.Error("client without key should be disabled")
	}
	if _, err := c.Lookup(context.Background(), "flour"); err == nil {
		t.Error("Lookup without key should fail")
	}
}

func TestRedactKey(t *testing.T) {
	in := "https://api.nal.usda.gov/fdc/v1/foods/search?api_key=secret&query=flour"
	got := redactKey(in)
	if strings.Contains(got, "secret") {
		t.Errorf("key leaked: %s", got)
	}
	if !strings.Contains(got, "api_key=REDACTED") {
		t.Errorf("redaction marker missing: %s", got)
	}
}

func TestExtractNutrientsByName(t *testing.T) {
	// name-based matching with zero IDs
	fr := foodResponse{}
	add := func(name, unit string, amount float64) {
		var fn foodNutrient
		fn.Nutrient.Name = name
		fn.Nutrient.UnitName = unit
		fn.Amount = amount
		fr.FoodNutrients = append(fr.FoodNutrients, fn)
	}
	add("Energy", "kcal", 100)
	add("Protein", "g", 5)
	add("Total lipid (fat)", "g", 3)
	add("Fiber, total dietary", "g", 2)

	n := extractNutrients(fr)
	if n.Calories != 100 || n.Protein != 5 || n.Fat != 3 || n.Fiber != 2 {
		t.Errorf("nutrients = %+v", n)
	}
}
