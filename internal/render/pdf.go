package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"

	"github.com/tboyle/recipe-press/internal/recipe"
)

// A4 in points.
const (
	pageWidth  = 595
	pageHeight = 842

	marginX    = 50
	lineHeight = 16
	bodySize   = 11
)

var (
	inkDark   = builder.Color{R: 0.15, G: 0.12, B: 0.10}
	inkAccent = builder.Color{R: 0.55, G: 0.25, B: 0.15}
	inkFaint  = builder.Color{R: 0.80, G: 0.72, B: 0.62}
	inkCream  = builder.Color{R: 0.98, G: 0.95, B: 0.88}
)

// WritePlainCard renders the clean single-column recipe card PDF.
func WritePlainCard(path string, d *recipe.Draft) error {
	b := builder.NewBuilder()
	b.SetInfo(&semantic.DocumentInfo{Title: d.Title})

	page := b.NewPage(pageWidth, pageHeight)
	y := float64(pageHeight - 70)

	page.DrawText(d.Title, marginX, y, builder.TextOptions{FontSize: 22, Color: inkDark})
	y -= 14
	page.DrawLine(marginX, y, pageWidth-marginX, y, builder.LineOptions{StrokeColor: inkDark, LineWidth: 1})
	y -= 24

	if meta := metaLine(d); meta != "" {
		page.DrawText(meta, marginX, y, builder.TextOptions{FontSize: bodySize, Color: inkDark})
		y -= 2 * lineHeight
	}

	y = drawSection(page, "Ingredients", bulleted(d.Ingredients), y)
	y = drawSection(page, "Instructions", numbered(d.Instructions), y)
	if !d.Nutrition.Empty() {
		drawSection(page, "Nutrition Per Serving", nutritionLines(d.Nutrition), y)
	}
	page.Finish()

	return writePDF(path, b)
}

// WriteFancyCard renders the decorated variant: cream background, double
// border, centered title.
func WriteFancyCard(path string, d *recipe.Draft) error {
	b := builder.NewBuilder()
	b.SetInfo(&semantic.DocumentInfo{Title: d.Title})

	page := b.NewPage(pageWidth, pageHeight)
	page.DrawRectangle(0, 0, pageWidth, pageHeight, builder.RectOptions{FillColor: inkCream, Fill: true})
	page.DrawRectangle(20, 20, pageWidth-40, pageHeight-40, builder.RectOptions{StrokeColor: inkAccent, Stroke: true, LineWidth: 2})
	page.DrawRectangle(28, 28, pageWidth-56, pageHeight-56, builder.RectOptions{StrokeColor: inkFaint, Stroke: true, LineWidth: 1})

	y := float64(pageHeight - 80)
	page.DrawText(d.Title, centerX(d.Title, 24), y, builder.TextOptions{FontSize: 24, Color: inkAccent})
	y -= 16
	flourish := "~ from the recipe box ~"
	page.DrawText(flourish, centerX(flourish, 10), y, builder.TextOptions{FontSize: 10, Color: inkFaint})
	y -= 14
	page.DrawLine(marginX+30, y, pageWidth-marginX-30, y, builder.LineOptions{StrokeColor: inkAccent, LineWidth: 0.8})
	y -= 26

	if meta := metaLine(d); meta != "" {
		page.DrawText(meta, centerX(meta, bodySize), y, builder.TextOptions{FontSize: bodySize, Color: inkDark})
		y -= 2 * lineHeight
	}

	y = drawSection(page, "Ingredients", bulleted(d.Ingredients), y)
	y = drawSection(page, "Instructions", numbered(d.Instructions), y)
	if !d.Nutrition.Empty() {
		drawSection(page, "Nutrition Per Serving", nutritionLines(d.Nutrition), y)
	}
	page.Finish()

	return writePDF(path, b)
}

func writePDF(path string, b builder.PDFBuilder) error {
	doc, err := b.Build()
	if err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{Deterministic: true}); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func drawSection(page builder.PageBuilder, header string, lines []string, y float64) float64 {
	if len(lines) == 0 {
		return y
	}
	page.DrawText(header, marginX, y, builder.TextOptions{FontSize: 14, Color: inkAccent})
	y -= 6
	page.DrawLine(marginX, y, marginX+120, y, builder.LineOptions{StrokeColor: inkFaint, LineWidth: 0.8})
	y -= lineHeight
	for _, line := range lines {
		for _, wrapped := range wrap(line, 88) {
			if y < 60 {
				return y // page is full; remaining lines live in Recipe.txt
			}
			page.DrawText(wrapped, marginX, y, builder.TextOptions{FontSize: bodySize, Color: inkDark})
			y -= lineHeight
		}
	}
	return y - lineHeight
}

func metaLine(d *recipe.Draft) string {
	var parts []string
	if d.Servings != "" {
		parts = append(parts, "Serves: "+d.Servings)
	}
	if d.PrepTime != "" {
		parts = append(parts, "Prep: "+d.PrepTime)
	}
	if d.CookTime != "" {
		parts = append(parts, "Cook: "+d.CookTime)
	}
	return strings.Join(parts, "    ")
}

func bulleted(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + it
	}
	return out
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, it)
	}
	return out
}

func nutritionLines(n recipe.Nutrition) []string {
	lines := []string{"Calories: " + n.Calories}
	lines = append(lines, fmt.Sprintf("Fat: %s   Carbs: %s   Protein: %s", n.Fat, n.Carbs, n.Protein))
	if n.Sodium != "" {
		lines = append(lines, "Sodium: "+n.Sodium)
	}
	return lines
}

// centerX approximates a centered x position for Helvetica at the given size.
func centerX(text string, fontSize float64) float64 {
	width := float64(len(text)) * fontSize * 0.5
	x := (pageWidth - width) / 2
	if x < marginX {
		return marginX
	}
	return x
}

// wrap splits a line on word boundaries at roughly width characters.
func wrap(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}
	words := strings.Fields(s)
	var out []string
	cur := ""
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		if len(cur)+1+len(w) > width {
			out = append(out, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
