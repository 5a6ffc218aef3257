package nutrition

import (
	"math"
	"testing"
)

func TestParseIngredient(t *testing.T) {
	tests := []struct {
		line string
		qty  float64
		unit string
		food string
	}{
		{"2 cups flour", 2, "cup", "flour"},
		{"1 1/2 cups brown sugar", 1.5, "cup", "brown sugar"},
		{"1/2 tsp salt", 0.5, "tsp", "salt"},
		{"½ cup butter", 0.5, "cup", "butter"},
		{"1½ cups milk", 1.5, "cup", "milk"},
		{"3 eggs", 3, "item", "eggs"},
		{"1 lb. ground beef", 1, "lb", "ground beef"},
		{"2 tbsp melted butter", 2, "tbsp", "butter"},
		{"1 cup chopped walnuts (optional)", 1, "cup", "walnuts"},
		{"pinch of nutmeg", 1, "pinch", "nutmeg"},
		{"1.5 oz baking chocolate", 1.5, "oz", "baking chocolate"},
		{"salt to taste", 1, "item", "salt"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p := ParseIngredient(tt.line)
			if math.Abs(p.Quantity-tt.qty) > 1e-9 {
				t.Errorf("Quantity = %v, want %v", p.Quantity, tt.qty)
			}
			if p.Unit != tt.unit {
				t.Errorf("Unit = %q, want %q", p.Unit, tt.unit)
			}
			if p.Food != tt.food {
				t.Errorf("Food = %q, want %q", p.Food, tt.food)
			}
		})
	}
}

func TestGrams(t *testing.T) {
	tests := []struct {
		p    ParsedIngredient
		want float64
	}{
		{ParsedIngredient{Quantity: 2, Unit: "cup"}, 480},
		{ParsedIngredient{Quantity: 1, Unit: "tbsp"}, 15},
		{ParsedIngredient{Quantity: 3, Unit: "tsp"}, 15},
		{ParsedIngredient{Quantity: 1, Unit: "lb"}, 453.59},
		{ParsedIngredient{Quantity: 2, Unit: "oz"}, 56.7},
		{ParsedIngredient{Quantity: 3, Unit: "item"}, 150},
		{ParsedIngredient{Quantity: 1, Unit: "mystery"}, 50},
	}
	for _, tt := range tests {
		if got := tt.p.Grams(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Grams(%v %s) = %v, want %v", tt.p.Quantity, tt.p.Unit, got, tt.want)
		}
	}
}

func TestParseServings(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"24 cookies", 24},
		{"Serves 8-10", 8},
		{"8", 8},
		{"", DefaultServings},
		{"a dozen", DefaultServings},
	}
	for _, tt := range tests {
		if got := ParseServings(tt.in); got != tt.want {
			t.Errorf("ParseServings(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
