package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Normalize collapses noisy whitespace and fixes common OCR artifacts.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}

// CleanLines drops very short lines and lines that are mostly symbols, the
// usual tesseract debris on handwritten cards.
func CleanLines(s string) string {
	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 2 {
			continue
		}
		alnum := 0
		for _, c := range line {
			if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				alnum++
			}
		}
		if float64(alnum) <= float64(len(line))*0.3 {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}

// recipe-ish words used to judge whether a tesseract pass found real content.
var recipeWords = []string{
	"ingredients", "instructions", "directions", "preheat", "bake",
	"mix", "sugar", "flour", "eggs", "milk",
}

func looksLikeRecipe(s string) bool {
	low := strings.ToLower(s)
	for _, w := range recipeWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}
