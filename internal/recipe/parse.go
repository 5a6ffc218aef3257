package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/internal/openai"
)

// Completer is the slice of the OpenAI client the parser needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string) ([]byte, error)
}

const parseSystemPrompt = `You are a recipe transcription assistant. You receive raw OCR text from a scanned
handwritten or typed recipe card. Extract the recipe into JSON with exactly these keys:
"title" (string), "ingredients" (array of strings, one per ingredient with quantity),
"instructions" (array of strings, one per step), and optionally "servings", "prep_time",
"cook_time" (strings). Fix obvious OCR errors (e.g. "1 cuo sugar" -> "1 cup sugar") but
never invent ingredients or steps that are not present. Respond with JSON only.`

// Parser turns OCR text into a structured Draft. The model does the heavy
// lifting; schema validation, a sanitize pass, and a heuristic fallback keep
// a bad model response from failing the item.
type Parser struct {
	llm    Completer
	logger *slog.Logger
	schema map[string]any
}

func NewParser(llm Completer, logger *slog.Logger) *Parser {
	return &Parser{
		llm:    llm,
		logger: logger,
		schema: BuildDraftJSONSchema(),
	}
}

// Parse extracts a Draft from OCR text. It never returns an unusable nil
// draft together with a nil error; when everything fails the draft carries
// the placeholder title and warnings describing what went wrong.
func (p *Parser) Parse(ctx context.Context, ocrText string) (*Draft, error) {
	start := time.Now()

	draft, err := p.parseWithModel(ctx, ocrText)
	if err != nil {
		p.logger.Warn("recipe.parse.model_failed", "error", err)
		draft = FallbackParse(ocrText)
	}

	p.rescueGaps(draft, ocrText)

	p.logger.Info("recipe.parse.done",
		"title", draft.Title,
		"ingredients", len(draft.Ingredients),
		"instructions", len(draft.Instructions),
		"usable", draft.Usable(),
		"warnings", len(draft.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds())
	return draft, nil
}

func (p *Parser) parseWithModel(ctx context.Context, ocrText string) (*Draft, error) {
	raw, err := p.llm.CompleteJSON(ctx, parseSystemPrompt, "OCR text:\n\n"+ocrText)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	if err := ValidateJSONAgainstSchema(p.schema, raw); err != nil {
		p.logger.Debug("recipe.parse.schema_invalid", "error", err)
		sanitized, droppedFields, sErr := NormalizeAndSanitizeJSON(raw)
		if sErr != nil {
			return nil, fmt.Errorf("sanitize: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(p.schema, sanitized); vErr != nil {
			return nil, fmt.Errorf("schema validation after sanitize: %w", vErr)
		}
		raw = sanitized
		d, dErr := decodeDraft(raw)
		if dErr != nil {
			return nil, dErr
		}
		for _, f := range droppedFields {
			d.Warn("sanitized model output: dropped " + f)
		}
		return d, nil
	}

	return decodeDraft(raw)
}

func decodeDraft(raw []byte) (*Draft, error) {
	var payload struct {
		Title        string   `json:"title"`
		Ingredients  []string `json:"ingredients"`
		Instructions []string `json:"instructions"`
		Servings     string   `json:"servings"`
		PrepTime     string   `json:"prep_time"`
		CookTime     string   `json:"cook_time"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d := &Draft{
		Title:        strings.TrimSpace(payload.Title),
		Ingredients:  payload.Ingredients,
		Instructions: payload.Instructions,
		Servings:     strings.TrimSpace(payload.Servings),
		PrepTime:     strings.TrimSpace(payload.PrepTime),
		CookTime:     strings.TrimSpace(payload.CookTime),
	}
	if d.Title == "" {
		d.Title = PlaceholderTitle
	}
	return d, nil
}

// rescueGaps patches a draft with information still recoverable from the raw
// OCR text: a missing title from the card's first lines, then from signature
// ingredients.
func (p *Parser) rescueGaps(d *Draft, ocrText string) {
	if d.Title == "" || d.Title == PlaceholderTitle {
		lines := strings.Split(ocrText, "\n")
		nonEmpty := make([]string, 0, len(lines))
		for _, l := range lines {
			if t := strings.TrimSpace(l); t != "" {
				nonEmpty = append(nonEmpty, t)
			}
		}
		if t := RescueTitle(nonEmpty); t != "" {
			d.Title = t
			d.Warn("title rescued from card header lines")
		} else if t := TitleFromIngredients(d.Ingredients); t != "" {
			d.Title = t
			d.Warn("title derived from signature ingredients")
		}
	}
	if len(d.Ingredients) == 0 {
		d.Warn("no ingredients extracted")
	}
	if len(d.Instructions) == 0 {
		d.Warn("no instructions extracted")
	}
}

// openai.Client satisfies Completer.
var _ Completer = (*openai.Client)(nil)
