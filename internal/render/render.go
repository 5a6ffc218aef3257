// Package render materializes one recipe into its product folder: the plain
// text artifacts, the marketplace CSV row, and the two printable PDF cards.
// Artifacts fail independently; one bad render never blocks its siblings.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/internal/common"
	"github.com/tboyle/recipe-press/internal/content"
	"github.com/tboyle/recipe-press/internal/recipe"
)

// Listing price defaults for the marketplace CSV.
const (
	ListingPrice    = "4.99"
	ListingCurrency = "USD"
	ListingQuantity = "100"
	TitleSuffix     = " | Digital Recipe Download"
)

// CSVHeader is the per-product listing.csv header, also reused by the
// master export.
var CSVHeader = []string{"Title", "Description", "Price", "Currency Code", "Quantity", "Tags"}

// Artifact records the outcome of rendering one output file.
type Artifact struct {
	Name string
	Err  error
}

// Product is a fully rendered output folder.
type Product struct {
	ID        string // folder name, <slug>-<hash6>
	Dir       string
	Slug      string
	Artifacts []Artifact
}

// Failed lists the artifacts that could not be written.
func (p *Product) Failed() []string {
	var out []string
	for _, a := range p.Artifacts {
		if a.Err != nil {
			out = append(out, a.Name)
		}
	}
	return out
}

// Renderer writes product folders under a base directory.
type Renderer struct {
	baseDir string
	logger  *slog.Logger
}

func NewRenderer(baseDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{baseDir: baseDir, logger: logger}
}

// Render creates the product folder and writes every artifact. It returns an
// error only when the folder itself cannot be created; individual artifact
// failures are reported in Product.Artifacts.
func (r *Renderer) Render(d *recipe.Draft, l content.Listing, imagePath string) (*Product, error) {
	start := time.Now()
	slug := recipe.Slugify(d.Title)
	if slug == "" {
		slug = "recipe"
	}
	id := slug + "-" + recipe.RandomHash()
	dir := filepath.Join(r.baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.NewAppError("PRODUCT_DIR", "create product dir", err)
	}

	p := &Product{ID: id, Dir: dir, Slug: slug}

	p.add("original image", r.copyOriginal(dir, imagePath))
	p.add("Recipe.txt", writeFile(filepath.Join(dir, "Recipe.txt"), RecipeText(d)))
	p.add("Listing.txt", writeFile(filepath.Join(dir, "Listing.txt"), ListingText(d, l)))
	p.add("Instagram.txt", writeOptional(filepath.Join(dir, "Instagram.txt"), l.Instagram))
	p.add("Pinterest.txt", writeOptional(filepath.Join(dir, "Pinterest.txt"), l.Pinterest))
	p.add("listing.csv", writeListingCSV(filepath.Join(dir, "listing.csv"), d, l))
	p.add(slug+"_Recipe-Card.pdf", WritePlainCard(filepath.Join(dir, slug+"_Recipe-Card.pdf"), d))
	p.add(slug+"_Recipe-Card-fancy.pdf", WriteFancyCard(filepath.Join(dir, slug+"_Recipe-Card-fancy.pdf"), d))

	for _, a := range p.Artifacts {
		if a.Err != nil {
			r.logger.Warn("render.artifact.failed", "product", id, "artifact", a.Name, "error", a.Err)
		}
	}
	r.logger.Info("render.done",
		"product", id,
		"artifacts", len(p.Artifacts),
		"failed", len(p.Failed()),
		"elapsed_ms", time.Since(start).Milliseconds())
	return p, nil
}

func (p *Product) add(name string, err error) {
	p.Artifacts = append(p.Artifacts, Artifact{Name: name, Err: err})
}

// copyOriginal keeps the source scan next to the rendered artifacts under an
// "original-" prefix so later passes can map folders back to source images.
func (r *Renderer) copyOriginal(dir, imagePath string) error {
	if imagePath == "" {
		return nil
	}
	src, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(dir, "original-"+filepath.Base(imagePath)))
	if err != nil {
		return fmt.Errorf("create image copy: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	return nil
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}

// writeOptional skips empty content instead of leaving an empty file behind.
func writeOptional(path, body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	return writeFile(path, body)
}

// RecipeText renders the plain-text recipe card.
func RecipeText(d *recipe.Draft) string {
	var b strings.Builder
	b.WriteString(d.Title + "\n")
	b.WriteString(strings.Repeat("=", len(d.Title)) + "\n\n")

	if d.Servings != "" {
		fmt.Fprintf(&b, "Servings: %s\n", d.Servings)
	}
	if d.PrepTime != "" {
		fmt.Fprintf(&b, "Prep Time: %s\n", d.PrepTime)
	}
	if d.CookTime != "" {
		fmt.Fprintf(&b, "Cook Time: %s\n", d.CookTime)
	}
	b.WriteString("\nIngredients\n-----------\n")
	for _, ing := range d.Ingredients {
		b.WriteString("- " + ing + "\n")
	}
	b.WriteString("\nInstructions\n------------\n")
	for i, step := range d.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if !d.Nutrition.Empty() {
		b.WriteString("\nNutrition (per serving)\n-----------------------\n")
		fmt.Fprintf(&b, "Calories: %s\n", d.Nutrition.Calories)
		fmt.Fprintf(&b, "Fat: %s  Carbs: %s  Protein: %s\n",
			d.Nutrition.Fat, d.Nutrition.Carbs, d.Nutrition.Protein)
		if d.Nutrition.Sodium != "" {
			fmt.Fprintf(&b, "Sodium: %s\n", d.Nutrition.Sodium)
		}
	}
	return b.String()
}

// ListingText renders the shop listing with tags and dietary notes.
func ListingText(d *recipe.Draft, l content.Listing) string {
	var b strings.Builder
	b.WriteString(d.Title + TitleSuffix + "\n\n")
	if l.Description != "" {
		b.WriteString(l.Description + "\n\n")
	}
	if len(l.Tags) > 0 {
		b.WriteString("Tags: " + strings.Join(l.Tags, ", ") + "\n")
	}
	if len(l.Allergens) > 0 {
		b.WriteString("Contains: " + strings.Join(l.Allergens, ", ") + "\n")
	}
	if len(l.Diets) > 0 {
		b.WriteString("Suitable for: " + strings.Join(l.Diets, ", ") + "\n")
	}
	return b.String()
}

// ListingRow is the marketplace CSV row for one product.
func ListingRow(d *recipe.Draft, l content.Listing) []string {
	return []string{
		d.Title + TitleSuffix,
		l.Description,
		ListingPrice,
		ListingCurrency,
		ListingQuantity,
		strings.Join(l.Tags, ","),
	}
}

func writeListingCSV(path string, d *recipe.Draft, l content.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	if err := w.Write(ListingRow(d, l)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
