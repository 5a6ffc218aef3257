package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/tboyle/recipe-press/internal/recipe"
)

type stubCompleter struct {
	text    string
	textErr error
	json    string
	jsonErr error
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if s.textErr != nil {
		return "", s.textErr
	}
	return s.text, nil
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, system, user string) ([]byte, error) {
	if s.jsonErr != nil {
		return nil, s.jsonErr
	}
	return []byte(s.json), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDraft() *recipe.Draft {
	return &recipe.Draft{
		Title:        "Sugar Cookies",
		Ingredients:  []string{"1 cup sugar", "2 cups flour", "2 eggs"},
		Instructions: []string{"Mix.", "Bake."},
		Servings:     "24 cookies",
	}
}

func TestGenerate(t *testing.T) {
	stub := &stubCompleter{
		text: "A lovely vintage listing.",
		json: `{"tags":["vintage recipe","sugar cookies","recipe card"],
		        "allergens":["wheat","eggs"],"diets":["vegetarian"]}`,
	}
	g := NewGenerator(stub, testLogger())
	d := testDraft()

	l := g.Generate(context.Background(), d)

	if l.Description != "A lovely vintage listing." {
		t.Errorf("Description = %q", l.Description)
	}
	if len(l.Tags) != TagCount {
		t.Errorf("Tags = %d entries, want %d: %v", len(l.Tags), TagCount, l.Tags)
	}
	if l.Instagram == "" || l.Pinterest == "" {
		t.Error("social captions missing")
	}
	if len(l.Allergens) != 2 || len(l.Diets) != 1 {
		t.Errorf("dietary = %v / %v", l.Allergens, l.Diets)
	}
}

func TestGenerateDegradesOnFailure(t *testing.T) {
	stub := &stubCompleter{textErr: errors.New("down"), jsonErr: errors.New("down")}
	g := NewGenerator(stub, testLogger())
	d := testDraft()

	l := g.Generate(context.Background(), d)

	if l.Description != "" || l.Instagram != "" || l.Pinterest != "" {
		t.Errorf("copy should be empty on failure: %+v", l)
	}
	// tags degrade to the built-in defaults, not to nothing
	if len(l.Tags) != TagCount {
		t.Errorf("Tags = %v, want default set of %d", l.Tags, TagCount)
	}
	if len(d.Warnings) == 0 {
		t.Error("failures should warn on the draft")
	}
}

func TestTagsAlwaysThirteenAndLegal(t *testing.T) {
	stub := &stubCompleter{json: `{"tags":["ok tag","this tag is far too long to be legal","OK TAG","", "another"]}`}
	g := NewGenerator(stub, testLogger())

	tags := g.tags(context.Background(), testDraft())
	if len(tags) != TagCount {
		t.Fatalf("len = %d, want %d", len(tags), TagCount)
	}
	seen := map[string]bool{}
	for _, tag := range tags {
		if len(tag) > MaxTagLength {
			t.Errorf("tag %q exceeds %d chars", tag, MaxTagLength)
		}
		if tag != strings.ToLower(tag) {
			t.Errorf("tag %q not lowercase", tag)
		}
		if seen[tag] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}
}

func TestTitleTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sugar Cookies", "sugar cookies"},
		{"Grandma's Famous Chocolate Chip Cookies", "grandmas famous"},
		{"Pie", "pie"},
	}
	for _, tt := range tests {
		if got := titleTag(tt.in); got != tt.want {
			t.Errorf("titleTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len(titleTag(tt.in)) > MaxTagLength {
			t.Errorf("titleTag(%q) too long", tt.in)
		}
	}
}
