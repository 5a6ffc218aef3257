package recipe

import (
	"strings"
	"testing"
)

func TestUsable(t *testing.T) {
	tests := []struct {
		name string
		d    Draft
		want bool
	}{
		{"title and ingredients", Draft{Title: "Sugar Cookies", Ingredients: []string{"1 cup sugar"}}, true},
		{"title and instructions", Draft{Title: "Sugar Cookies", Instructions: []string{"Mix well."}}, true},
		{"placeholder title", Draft{Title: PlaceholderTitle, Ingredients: []string{"1 cup sugar"}}, false},
		{"empty title", Draft{Title: "", Ingredients: []string{"1 cup sugar"}}, false},
		{"title only", Draft{Title: "Sugar Cookies"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Grandma's Apple Pie", "grandmas-apple-pie"},
		{"  Chocolate   Chip Cookies  ", "chocolate-chip-cookies"},
		{"100% Whole Wheat Bread!", "100-whole-wheat-bread"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("chocolate ", 20)
	got := Slugify(long)
	if len(got) > MaxSlugLength {
		t.Errorf("slug length = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with hyphen: %q", got)
	}
}

func TestUniqueID(t *testing.T) {
	id := UniqueID("Grandma's Apple Pie")
	parts := strings.Split(id, "-")
	suffix := parts[len(parts)-1]
	if len(suffix) != 6 {
		t.Errorf("hash suffix = %q, want 6 hex chars", suffix)
	}
	if !strings.HasPrefix(id, "grandmas-apple-pie-") {
		t.Errorf("UniqueID = %q, want grandmas-apple-pie-<hash> prefix", id)
	}
	if other := UniqueID("Grandma's Apple Pie"); other == id {
		t.Errorf("two UniqueID calls produced the same value %q", id)
	}
}
