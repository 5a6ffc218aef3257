package recipe

import (
	"regexp"
	"strings"
)

var (
	bulletRE   = regexp.MustCompile(`^\s*[-*•‣·]\s*`)
	numberedRE = regexp.MustCompile(`^\s*\d+[\.\)]\s*`)
	servingsRE = regexp.MustCompile(`(?i)(?:serves|servings?|yield[s]?)[:\s]+(\d+[ \w-]*)`)
	prepRE     = regexp.MustCompile(`(?i)prep(?:aration)?\s*time[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)
	cookRE     = regexp.MustCompile(`(?i)(?:cook|bak(?:e|ing)|total)\s*time[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)

	ingredientHeaderRE  = regexp.MustCompile(`(?i)^\s*ingredients?\b[:\s]*$`)
	instructionHeaderRE = regexp.MustCompile(`(?i)^\s*(?:instructions?|directions?|method|steps?|preparation)\b[:\s]*$`)
)

// quantity-looking line start, e.g. "2 cups flour", "1/2 tsp salt"
var quantityStartRE = regexp.MustCompile(`^\s*\d[\d\s/½¼¾⅓⅔.]*\s*(?:cups?|tbsp|tablespoons?|tsp|teaspoons?|oz|ounces?|lbs?|pounds?|g|grams?|ml|cans?|sticks?|cloves?|pinch)\b`)

// FallbackParse builds a draft from OCR text with plain heuristics when the
// model output is unusable. It looks for section headers, bullet and numbered
// lists, and quantity-shaped lines.
func FallbackParse(text string) *Draft {
	d := &Draft{Title: PlaceholderTitle}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		d.Warn("fallback parse: empty text")
		return d
	}

	if m := servingsRE.FindStringSubmatch(text); m != nil {
		d.Servings = strings.TrimSpace(m[1])
	}
	if m := prepRE.FindStringSubmatch(text); m != nil {
		d.PrepTime = strings.TrimSpace(m[1])
	}
	if m := cookRE.FindStringSubmatch(text); m != nil {
		d.CookTime = strings.TrimSpace(m[1])
	}

	if t := RescueTitle(cleaned); t != "" {
		d.Title = t
	}

	const (
		secNone = iota
		secIngredients
		secInstructions
	)
	section := secNone
	for _, line := range cleaned {
		switch {
		case ingredientHeaderRE.MatchString(line):
			section = secIngredients
			continue
		case instructionHeaderRE.MatchString(line):
			section = secInstructions
			continue
		}

		switch section {
		case secIngredients:
			if item := bulletRE.ReplaceAllString(line, ""); item != line || quantityStartRE.MatchString(line) {
				d.Ingredients = append(d.Ingredients, strings.TrimSpace(item))
			} else if len(line) < 80 {
				// short lines inside the ingredients block are usually items
				// even without a bullet
				d.Ingredients = append(d.Ingredients, line)
			}
		case secInstructions:
			if step := numberedRE.ReplaceAllString(line, ""); step != line {
				d.Instructions = append(d.Instructions, strings.TrimSpace(step))
			} else if n := len(d.Instructions); n > 0 {
				// continuation of the previous step
				d.Instructions[n-1] = d.Instructions[n-1] + " " + line
			} else {
				d.Instructions = append(d.Instructions, line)
			}
		default:
			// no headers found at all: quantity-shaped lines are ingredients,
			// numbered lines are steps
			if quantityStartRE.MatchString(line) {
				d.Ingredients = append(d.Ingredients, line)
			} else if step := numberedRE.ReplaceAllString(line, ""); step != line {
				d.Instructions = append(d.Instructions, strings.TrimSpace(step))
			}
		}
	}

	d.Warn("structured parse failed; used heuristic fallback")
	return d
}

// titleSkipRE matches lines that are clearly not a recipe title.
var titleSkipRE = regexp.MustCompile(`(?i)^(?:ingredients?|instructions?|directions?|recipe|from the kitchen|serves|yield|page \d+)\b`)

// RescueTitle picks a plausible title from the first few lines of OCR output.
func RescueTitle(lines []string) string {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		t := strings.TrimSpace(line)
		if len(t) < 4 || len(t) > 60 {
			continue
		}
		if titleSkipRE.MatchString(t) {
			continue
		}
		if quantityStartRE.MatchString(t) || numberedRE.MatchString(t) {
			continue
		}
		alnum := 0
		for _, r := range t {
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r == ' ' {
				alnum++
			}
		}
		if float64(alnum)/float64(len(t)) < 0.7 {
			continue
		}
		return titleCase(t)
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ingredientTitles maps a signature ingredient to a sellable fallback title
// when even the rescue pass finds nothing usable.
var ingredientTitles = []struct {
	keyword string
	title   string
}{
	{"chocolate chip", "Vintage Chocolate Chip Cookies"},
	{"peanut butter", "Classic Peanut Butter Cookies"},
	{"oatmeal", "Old-Fashioned Oatmeal Cookies"},
	{"banana", "Grandma's Banana Bread"},
	{"pumpkin", "Homestead Pumpkin Pie"},
	{"apple", "Country Apple Pie"},
	{"lemon", "Vintage Lemon Bars"},
	{"brownie", "Fudgy Chocolate Brownies"},
	{"cocoa", "Fudgy Chocolate Brownies"},
	{"sugar", "Old-Fashioned Sugar Cookies"},
}

// TitleFromIngredients derives a title from signature ingredients.
func TitleFromIngredients(ingredients []string) string {
	joined := strings.ToLower(strings.Join(ingredients, " "))
	for _, it := range ingredientTitles {
		if strings.Contains(joined, it.keyword) {
			return it.title
		}
	}
	return ""
}
