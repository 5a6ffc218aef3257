package recipe

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const estimateSystemPrompt = `You estimate missing recipe metadata. Given a recipe title and its ingredients
and instructions, reply with JSON with keys "servings", "prep_time", "cook_time"
(all strings, e.g. "24 cookies", "15 minutes", "10-12 minutes"). Base estimates
on the quantities and steps shown. Respond with JSON only.`

// typeEstimates supplies believable defaults per recipe type when the model
// cannot help either.
var typeEstimates = []struct {
	keyword  string
	servings string
	prep     string
	cook     string
}{
	{"cookie", "24 cookies", "15 minutes", "10-12 minutes"},
	{"cake", "12 servings", "20 minutes", "30-35 minutes"},
	{"pie", "8 slices", "25 minutes", "45-50 minutes"},
	{"brownie", "16 brownies", "15 minutes", "25-30 minutes"},
	{"bar", "16 bars", "15 minutes", "25-30 minutes"},
	{"bread", "1 loaf", "15 minutes", "50-60 minutes"},
	{"muffin", "12 muffins", "15 minutes", "18-20 minutes"},
}

var defaultEstimate = struct {
	servings, prep, cook string
}{"8 servings", "20 minutes", "30 minutes"}

// EstimateDetails fills empty or meaningless servings/prep/cook fields, first
// by asking the model, then from the recipe-type table. Existing meaningful
// values always win.
func EstimateDetails(ctx context.Context, llm Completer, logger *slog.Logger, d *Draft) {
	if meaningful(d.Servings) && meaningful(d.PrepTime) && meaningful(d.CookTime) {
		return
	}

	if est := estimateWithModel(ctx, llm, logger, d); est != nil {
		merge(d, est.Servings, est.PrepTime, est.CookTime)
	}
	if meaningful(d.Servings) && meaningful(d.PrepTime) && meaningful(d.CookTime) {
		d.Warn("servings/times estimated")
		return
	}

	servings, prep, cook := defaultEstimate.servings, defaultEstimate.prep, defaultEstimate.cook
	title := strings.ToLower(d.Title)
	for _, te := range typeEstimates {
		if strings.Contains(title, te.keyword) {
			servings, prep, cook = te.servings, te.prep, te.cook
			break
		}
	}
	merge(d, servings, prep, cook)
	d.Warn("servings/times estimated")
}

type estimatePayload struct {
	Servings string `json:"servings"`
	PrepTime string `json:"prep_time"`
	CookTime string `json:"cook_time"`
}

func estimateWithModel(ctx context.Context, llm Completer, logger *slog.Logger, d *Draft) *estimatePayload {
	user := "Title: " + d.Title +
		"\n\nIngredients:\n" + strings.Join(d.Ingredients, "\n") +
		"\n\nInstructions:\n" + strings.Join(d.Instructions, "\n")
	raw, err := llm.CompleteJSON(ctx, estimateSystemPrompt, user)
	if err != nil {
		logger.Warn("recipe.estimate.model_failed", "error", err)
		return nil
	}
	var est estimatePayload
	if err := json.Unmarshal(raw, &est); err != nil {
		logger.Warn("recipe.estimate.decode_failed", "error", err)
		return nil
	}
	return &est
}

func merge(d *Draft, servings, prep, cook string) {
	if !meaningful(d.Servings) && meaningful(servings) {
		d.Servings = strings.TrimSpace(servings)
	}
	if !meaningful(d.PrepTime) && meaningful(prep) {
		d.PrepTime = strings.TrimSpace(prep)
	}
	if !meaningful(d.CookTime) && meaningful(cook) {
		d.CookTime = strings.TrimSpace(cook)
	}
}

// meaningful rejects empty strings and the filler values models emit for
// unknown fields.
func meaningful(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "", "n/a", "na", "unknown", "not specified", "none", "-", "tbd":
		return false
	}
	return true
}
