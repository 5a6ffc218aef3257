package render

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tboyle/recipe-press/internal/content"
	"github.com/tboyle/recipe-press/internal/recipe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDraft() *recipe.Draft {
	return &recipe.Draft{
		Title:        "Sugar Cookies",
		Ingredients:  []string{"1 cup sugar", "2 cups flour"},
		Instructions: []string{"Mix everything.", "Bake at 350 for 10 minutes."},
		Servings:     "24 cookies",
		PrepTime:     "15 minutes",
		CookTime:     "10 minutes",
		Nutrition: recipe.Nutrition{
			Calories: "120", Fat: "4.5g", Carbs: "18.0g", Protein: "1.5g", Sodium: "85mg",
		},
	}
}

func testListing() content.Listing {
	return content.Listing{
		Description: "A lovely vintage cookie recipe.",
		Tags:        []string{"vintage recipe", "cookie card"},
		Instagram:   "Bake a piece of history! #vintage",
		Pinterest:   "Printable vintage sugar cookie recipe card.",
		Allergens:   []string{"wheat"},
		Diets:       []string{"vegetarian"},
	}
}

func TestRenderWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "card-001.jpg")
	if err := os.WriteFile(img, []byte("fake-jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(filepath.Join(dir, "products"), testLogger())
	p, err := r.Render(testDraft(), testListing(), img)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if failed := p.Failed(); len(failed) != 0 {
		t.Fatalf("failed artifacts: %v", failed)
	}
	if !strings.HasPrefix(p.ID, "sugar-cookies-") {
		t.Errorf("ID = %q", p.ID)
	}

	for _, name := range []string{
		"original-card-001.jpg",
		"Recipe.txt",
		"Listing.txt",
		"Instagram.txt",
		"Pinterest.txt",
		"listing.csv",
		"sugar-cookies_Recipe-Card.pdf",
		"sugar-cookies_Recipe-Card-fancy.pdf",
	} {
		fi, err := os.Stat(filepath.Join(p.Dir, name))
		if err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
			continue
		}
		if fi.Size() == 0 {
			t.Errorf("artifact %s is empty", name)
		}
	}
}

func TestRenderSkipsEmptySocialFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, testLogger())
	l := testListing()
	l.Instagram = ""
	l.Pinterest = "  "

	p, err := r.Render(testDraft(), l, "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, name := range []string{"Instagram.txt", "Pinterest.txt"} {
		if _, err := os.Stat(filepath.Join(p.Dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist when the caption is empty", name)
		}
	}
	if len(p.Failed()) != 0 {
		t.Errorf("skipped captions are not failures: %v", p.Failed())
	}
}

func TestRecipeText(t *testing.T) {
	got := RecipeText(testDraft())
	for _, want := range []string{
		"Sugar Cookies",
		"Servings: 24 cookies",
		"- 1 cup sugar",
		"1. Mix everything.",
		"2. Bake at 350 for 10 minutes.",
		"Calories: 120",
		"Sodium: 85mg",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RecipeText missing %q:\n%s", want, got)
		}
	}
}

func TestListingText(t *testing.T) {
	got := ListingText(testDraft(), testListing())
	for _, want := range []string{
		"Sugar Cookies | Digital Recipe Download",
		"A lovely vintage cookie recipe.",
		"Tags: vintage recipe, cookie card",
		"Contains: wheat",
		"Suitable for: vegetarian",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ListingText missing %q", want)
		}
	}
}

func TestListingCSV(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, testLogger())
	p, err := r.Render(testDraft(), testListing(), "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	f, err := os.Open(filepath.Join(p.Dir, "listing.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	row := rows[1]
	if row[0] != "Sugar Cookies | Digital Recipe Download" {
		t.Errorf("title = %q", row[0])
	}
	if row[2] != ListingPrice || row[3] != ListingCurrency || row[4] != ListingQuantity {
		t.Errorf("price columns = %v", row[2:5])
	}
	if !strings.Contains(row[5], "vintage recipe") {
		t.Errorf("tags = %q", row[5])
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("one two three four five six seven", 12)
	for _, l := range lines {
		if len(l) > 12 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if joined := strings.Join(lines, " "); joined != "one two three four five six seven" {
		t.Errorf("words lost: %q", joined)
	}
	if got := wrap("short", 20); len(got) != 1 || got[0] != "short" {
		t.Errorf("wrap(short) = %v", got)
	}
}

func TestRenderPlaceholderTitleStillProducesFolder(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, testLogger())
	d := &recipe.Draft{Title: recipe.PlaceholderTitle, Ingredients: []string{"1 cup sugar"}}

	p, err := r.Render(d, content.Listing{}, "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(p.ID, "untitled-recipe-") {
		t.Errorf("ID = %q", p.ID)
	}
}
