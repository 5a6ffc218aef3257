// Package recipe turns raw OCR text into a structured draft: title,
// ingredient list, instruction steps, and serving metadata. Parsing is
// best-effort; a draft with gaps carries warnings instead of failing the item.
package recipe

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

// PlaceholderTitle marks a draft whose title could not be recovered.
const PlaceholderTitle = "Untitled Recipe"

// MaxSlugLength bounds generated product folder names.
const MaxSlugLength = 64

// Nutrition is the per-serving label attached to a draft.
type Nutrition struct {
	Calories string `json:"calories"`
	Fat      string `json:"fat"`
	Carbs    string `json:"carbs"`
	Protein  string `json:"protein"`
	Fiber    string `json:"fiber,omitempty"`
	Sugar    string `json:"sugar,omitempty"`
	Sodium   string `json:"sodium,omitempty"`

	// Source names the analyzer that produced the values ("usda" or "estimate").
	Source string `json:"-"`
}

// Empty reports whether no nutrient was resolved.
func (n Nutrition) Empty() bool {
	return n.Calories == "" && n.Fat == "" && n.Carbs == "" && n.Protein == ""
}

// Draft is the transient structured result of OCR + parsing. It lives for one
// pipeline run and is never persisted beyond the rendered output files.
type Draft struct {
	Title        string    `json:"title"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	Servings     string    `json:"servings,omitempty"`
	PrepTime     string    `json:"prep_time,omitempty"`
	CookTime     string    `json:"cook_time,omitempty"`
	Nutrition    Nutrition `json:"-"`

	// Warnings records non-fatal parse gaps (missing sections, fallbacks used).
	Warnings []string `json:"-"`
}

// Usable is the minimum-viable-fields policy: a real title plus at least one
// of the two lists. Drafts below this bar still render, with placeholders.
func (d *Draft) Usable() bool {
	if d.Title == "" || d.Title == PlaceholderTitle {
		return false
	}
	return len(d.Ingredients) > 0 || len(d.Instructions) > 0
}

// Warn appends a parse warning.
func (d *Draft) Warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

var (
	reNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// Slugify converts a title to a URL-friendly slug, capped at MaxSlugLength.
func Slugify(text string) string {
	text = reNonAlnum.ReplaceAllString(strings.ToLower(text), "")
	text = reSpaces.ReplaceAllString(strings.TrimSpace(text), "-")
	if len(text) > MaxSlugLength {
		text = text[:MaxSlugLength]
		text = strings.TrimRight(text, "-")
	}
	return text
}

// RandomHash returns a 6-char hex suffix for unique product identifiers.
func RandomHash() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// UniqueID builds "<slug>-<hash6>" for the product folder name.
func UniqueID(title string) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "recipe"
	}
	return slug + "-" + RandomHash()
}
