// Package nutrition resolves a per-serving nutrition label for a recipe
// draft. The primary path looks each ingredient up in USDA FoodData Central
// and sums per-100g nutrients scaled by estimated gram weight; when nothing
// matches, a model-based estimate stands in. Resolution is best-effort and
// never fails the item.
package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIngredient is one ingredient line split into quantity, unit, and the
// food name used for the USDA search.
type ParsedIngredient struct {
	Raw      string
	Quantity float64
	Unit     string
	Food     string
}

var unicodeFractions = map[rune]float64{
	'½': 0.5, '¼': 0.25, '¾': 0.75,
	'⅓': 1.0 / 3, '⅔': 2.0 / 3, '⅛': 0.125,
}

var (
	quantityRE = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+/\d+|\d*\.?\d+)\s*`)
	unitRE     = regexp.MustCompile(`(?i)^(cups?|c\.|tablespoons?|tbsps?|tbl?\.?|teaspoons?|tsps?|ounces?|oz\.?|pounds?|lbs?\.?|grams?|g\.?|kilograms?|kg\.?|milliliters?|ml\.?|liters?|l\.?|sticks?|cans?|packages?|pkgs?\.?|cloves?|pinch(?:es)?|dash(?:es)?)\b\.?\s*`)

	parenRE     = regexp.MustCompile(`\([^)]*\)`)
	foodStripRE = regexp.MustCompile(`(?i)\b(of|fresh|chopped|diced|sliced|minced|melted|softened|sifted|packed|divided|optional|to taste|large|small|medium)\b`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

// ParseIngredient splits "1 1/2 cups all-purpose flour (sifted)" into
// quantity 1.5, unit "cup", food "all-purpose flour". Missing quantities
// default to 1 and missing units to "item".
func ParseIngredient(line string) ParsedIngredient {
	p := ParsedIngredient{Raw: line, Quantity: 1, Unit: "item"}
	rest := strings.TrimSpace(line)

	if qty, remainder, ok := cutUnicodeFraction(rest); ok {
		p.Quantity = qty
		rest = remainder
	} else if m := quantityRE.FindStringSubmatch(rest); m != nil {
		p.Quantity = parseQuantity(m[1])
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	if m := unitRE.FindStringSubmatch(rest); m != nil {
		p.Unit = canonicalUnit(m[1])
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	rest = parenRE.ReplaceAllString(rest, " ")
	rest = foodStripRE.ReplaceAllString(rest, " ")
	rest = strings.Trim(rest, " ,.-")
	p.Food = spaceRE.ReplaceAllString(rest, " ")
	return p
}

// cutUnicodeFraction handles "½ cup" and "1½ cups" prefixes.
func cutUnicodeFraction(s string) (float64, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	var whole float64
	if i > 0 {
		whole, _ = strconv.ParseFloat(s[:i], 64)
	}
	rest := strings.TrimSpace(s[i:])
	r := []rune(rest)
	if len(r) == 0 {
		return 0, s, false
	}
	frac, ok := unicodeFractions[r[0]]
	if !ok {
		return 0, s, false
	}
	return whole + frac, strings.TrimSpace(string(r[1:])), true
}

func parseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.Contains(s, " ") { // mixed number "1 1/2"
		parts := strings.Fields(s)
		whole, _ := strconv.ParseFloat(parts[0], 64)
		return whole + parseQuantity(parts[1])
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, _ := strconv.ParseFloat(num, 64)
		d, _ := strconv.ParseFloat(den, 64)
		if d != 0 {
			return n / d
		}
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func canonicalUnit(u string) string {
	u = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(u), "."))
	switch {
	case strings.HasPrefix(u, "cup"), u == "c":
		return "cup"
	case strings.HasPrefix(u, "tablespoon"), strings.HasPrefix(u, "tbsp"), strings.HasPrefix(u, "tbl"):
		return "tbsp"
	case strings.HasPrefix(u, "teaspoon"), strings.HasPrefix(u, "tsp"):
		return "tsp"
	case strings.HasPrefix(u, "ounce"), u == "oz":
		return "oz"
	case strings.HasPrefix(u, "pound"), strings.HasPrefix(u, "lb"):
		return "lb"
	case strings.HasPrefix(u, "kilogram"), u == "kg":
		return "kg"
	case strings.HasPrefix(u, "gram"), u == "g":
		return "g"
	case strings.HasPrefix(u, "milliliter"), u == "ml":
		return "ml"
	case strings.HasPrefix(u, "liter"), u == "l":
		return "l"
	case strings.HasPrefix(u, "stick"):
		return "stick"
	case strings.HasPrefix(u, "can"):
		return "can"
	case strings.HasPrefix(u, "package"), strings.HasPrefix(u, "pkg"):
		return "package"
	case strings.HasPrefix(u, "clove"):
		return "clove"
	case strings.HasPrefix(u, "pinch"), strings.HasPrefix(u, "dash"):
		return "pinch"
	}
	return "item"
}

// gramsPerUnit approximates the weight of one unit. Volume conversions assume
// water-like density; good enough for a label on a vintage recipe card.
var gramsPerUnit = map[string]float64{
	"cup":     240,
	"tbsp":    15,
	"tsp":     5,
	"oz":      28.35,
	"lb":      453.59,
	"g":       1,
	"kg":      1000,
	"ml":      1,
	"l":       1000,
	"stick":   113,
	"can":     400,
	"package": 225,
	"clove":   3,
	"pinch":   0.3,
	"item":    50,
}

// Grams estimates the total gram weight of the parsed quantity.
func (p ParsedIngredient) Grams() float64 {
	per, ok := gramsPerUnit[p.Unit]
	if !ok {
		per = gramsPerUnit["item"]
	}
	return p.Quantity * per
}
