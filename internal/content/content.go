// Package content generates the marketing copy for a publishable recipe
// listing: shop description, search tags, and social captions. Every piece is
// best-effort; a failed generation leaves the field empty and the caller's
// draft carries a warning.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/internal/recipe"
)

// TagCount is the number of search tags a listing carries.
const TagCount = 13

// MaxTagLength is the marketplace limit per tag.
const MaxTagLength = 20

// Listing is the generated copy for one recipe.
type Listing struct {
	Description string
	Tags        []string
	Instagram   string
	Pinterest   string
	Allergens   []string
	Diets       []string
}

// Generator produces listing copy from a parsed draft.
type Generator struct {
	llm    recipe.Completer
	logger *slog.Logger
}

func NewGenerator(llm recipe.Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, logger: logger}
}

// Generate builds all listing copy for the draft. Individual failures degrade
// to empty fields with a warning on the draft; Generate itself never fails.
func (g *Generator) Generate(ctx context.Context, d *recipe.Draft) Listing {
	start := time.Now()
	var l Listing

	l.Description = g.description(ctx, d)
	if l.Description == "" {
		d.Warn("listing description could not be generated")
	}

	l.Tags = g.tags(ctx, d)
	if len(l.Tags) == 0 {
		d.Warn("search tags could not be generated")
	}

	l.Instagram = g.social(ctx, d, "Instagram",
		"Write an Instagram caption for this digital recipe card listing. Warm, nostalgic tone, 2-3 short paragraphs, end with 5-8 relevant hashtags.")
	if l.Instagram == "" {
		d.Warn("Instagram caption could not be generated")
	}

	l.Pinterest = g.social(ctx, d, "Pinterest",
		"Write a Pinterest pin description for this digital recipe card listing. 2-3 sentences, keyword-rich, no hashtags.")
	if l.Pinterest == "" {
		d.Warn("Pinterest description could not be generated")
	}

	l.Allergens, l.Diets = g.dietary(ctx, d)

	g.logger.Info("content.generate.done",
		"title", d.Title,
		"tags", len(l.Tags),
		"allergens", len(l.Allergens),
		"elapsed_ms", time.Since(start).Milliseconds())
	return l
}

const descriptionSystem = `You write product listings for digital downloads of vintage recipe cards.
Given a recipe, write a warm, nostalgic shop description: an opening hook,
what the buyer receives (printable recipe card PDF, ingredient list,
step-by-step instructions), and a closing line inviting them to bake a piece
of history. Plain text, no markdown headers.`

func (g *Generator) description(ctx context.Context, d *recipe.Draft) string {
	out, err := g.llm.Complete(ctx, descriptionSystem, draftSummary(d))
	if err != nil {
		g.logger.Warn("content.description.failed", "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

const tagsSystem = `You generate marketplace search tags for digital recipe card listings.
Reply with JSON: {"tags": [...]} holding exactly 13 tags. Each tag is at most
20 characters, lowercase, buyer-search phrases like "vintage recipe" or
"cookie recipe card". Respond with JSON only.`

func (g *Generator) tags(ctx context.Context, d *recipe.Draft) []string {
	raw, err := g.llm.CompleteJSON(ctx, tagsSystem, draftSummary(d))
	if err != nil {
		g.logger.Warn("content.tags.failed", "error", err)
		return defaultTags(d.Title)
	}
	var payload struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.logger.Warn("content.tags.decode_failed", "error", err)
		return defaultTags(d.Title)
	}
	tags := sanitizeTags(payload.Tags)
	if len(tags) < TagCount {
		tags = fillTags(tags, d.Title)
	}
	return tags[:TagCount]
}

// baseTags pads model output up to the required count.
var baseTags = []string{
	"vintage recipe", "recipe card", "digital download", "printable recipe",
	"retro recipe", "old fashioned", "grandmas recipe", "handwritten recipe",
	"kitchen decor", "recipe gift", "baking gift", "nostalgic kitchen",
	"heirloom recipe",
}

func defaultTags(title string) []string {
	return fillTags(nil, title)
}

func fillTags(tags []string, title string) []string {
	seen := make(map[string]struct{}, TagCount)
	for _, t := range tags {
		seen[t] = struct{}{}
	}
	if t := titleTag(title); t != "" {
		if _, ok := seen[t]; !ok {
			tags = append(tags, t)
			seen[t] = struct{}{}
		}
	}
	for _, t := range baseTags {
		if len(tags) >= TagCount {
			break
		}
		if _, ok := seen[t]; !ok {
			tags = append(tags, t)
			seen[t] = struct{}{}
		}
	}
	return tags
}

// titleTag compacts a recipe title into a legal tag.
func titleTag(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.ReplaceAll(t, "'", "")
	if len(t) > MaxTagLength {
		words := strings.Fields(t)
		t = ""
		for _, w := range words {
			next := strings.TrimSpace(t + " " + w)
			if len(next) > MaxTagLength {
				break
			}
			t = next
		}
	}
	return strings.TrimSpace(t)
}

func sanitizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > MaxTagLength {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (g *Generator) social(ctx context.Context, d *recipe.Draft, channel, system string) string {
	out, err := g.llm.Complete(ctx, system, draftSummary(d))
	if err != nil {
		g.logger.Warn("content.social.failed", "channel", channel, "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

const dietarySystem = `You analyze recipes for allergens and diet compatibility. Reply with JSON:
{"allergens": [...], "diets": [...]}. Allergens from: wheat, dairy, eggs, nuts,
peanuts, soy, shellfish, fish, sesame. Diets from: vegetarian, vegan,
gluten-free, dairy-free, nut-free. Only list what the ingredients support.
Respond with JSON only.`

func (g *Generator) dietary(ctx context.Context, d *recipe.Draft) (allergens, diets []string) {
	if len(d.Ingredients) == 0 {
		return nil, nil
	}
	raw, err := g.llm.CompleteJSON(ctx, dietarySystem, "Ingredients:\n"+strings.Join(d.Ingredients, "\n"))
	if err != nil {
		g.logger.Warn("content.dietary.failed", "error", err)
		return nil, nil
	}
	var payload struct {
		Allergens []string `json:"allergens"`
		Diets     []string `json:"diets"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.logger.Warn("content.dietary.decode_failed", "error", err)
		return nil, nil
	}
	return payload.Allergens, payload.Diets
}

func draftSummary(d *recipe.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", d.Title)
	if d.Servings != "" {
		fmt.Fprintf(&b, "Servings: %s\n", d.Servings)
	}
	if len(d.Ingredients) > 0 {
		b.WriteString("Ingredients:\n")
		for _, ing := range d.Ingredients {
			b.WriteString("- " + ing + "\n")
		}
	}
	if len(d.Instructions) > 0 {
		b.WriteString("Instructions:\n")
		for i, step := range d.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	return b.String()
}
