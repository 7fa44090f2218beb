package ingredients

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "marker with trailing sentence",
			text: "Ingredients: Water, Sugar, Salt. Contains 2% milk.",
			want: []string{"Water", "Sugar", "Salt"},
		},
		{
			name: "no marker",
			text: "A delicious snack made with real fruit.",
			want: nil,
		},
		{
			name: "active ingredients marker",
			text: "ACTIVE INGREDIENTS: X, Y",
			want: []string{"X", "Y"},
		},
		{
			name: "contains marker",
			text: "Contains: wheat flour; cane sugar; sea salt",
			want: []string{"wheat flour", "cane sugar", "sea salt"},
		},
		{
			name: "nested parenthetical stays whole",
			text: "Ingredients: Enriched Flour (Wheat Flour, Niacin, Iron), Water, Yeast.",
			want: []string{"Enriched Flour (Wheat Flour, Niacin, Iron)", "Water", "Yeast"},
		},
		{
			name: "case-insensitive dedupe keeps first occurrence",
			text: "Ingredients: Water, Sugar, water, SUGAR, Salt",
			want: []string{"Water", "Sugar", "Salt"},
		},
		{
			name: "empty fragments dropped",
			text: "Ingredients: Water,, , Salt,",
			want: []string{"Water", "Salt"},
		},
		{
			name: "decimal period does not end the clause",
			text: "Ingredients: Vitamin D3 0.5mg, Calcium",
			want: []string{"Vitamin D3 0.5mg", "Calcium"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Extract(%q) = %#v, want %#v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		clause string
		want   []string
	}{
		{
			name:   "simple commas",
			clause: "water, sugar, salt",
			want:   []string{"water", "sugar", "salt"},
		},
		{
			name:   "semicolons at depth zero",
			clause: "flour; sugar (beet, cane); salt",
			want:   []string{"flour", "sugar (beet, cane)", "salt"},
		},
		{
			name:   "brackets treated like parens",
			clause: "color [red 40, blue 1], dextrose",
			want:   []string{"color [red 40, blue 1]", "dextrose"},
		},
		{
			name:   "unbalanced close does not underflow",
			clause: "salt), pepper",
			want:   []string{"salt)", "pepper"},
		},
		{
			name:   "whitespace only",
			clause: "   ",
			want:   nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitList(tc.clause)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitList(%q) = %#v, want %#v", tc.clause, got, tc.want)
			}
		})
	}
}

func TestSplitComposite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantName   string
		wantNested string
	}{
		{
			name:       "composite with nested list",
			raw:        "Enriched Flour (Wheat Flour, Niacin, Iron)",
			wantName:   "Enriched Flour",
			wantNested: "Wheat Flour, Niacin, Iron",
		},
		{
			name:       "atomic ingredient",
			raw:        "Sea Salt",
			wantName:   "Sea Salt",
			wantNested: "",
		},
		{
			name:       "doubly nested parenthetical",
			raw:        "Chocolate (Cocoa (Processed with Alkali), Sugar)",
			wantName:   "Chocolate",
			wantNested: "Cocoa (Processed with Alkali), Sugar",
		},
		{
			name:       "unbalanced parenthetical",
			raw:        "Broth (Water, Salt",
			wantName:   "Broth",
			wantNested: "Water, Salt",
		},
		{
			name:       "bracket nesting",
			raw:        "Color [Annatto, Turmeric]",
			wantName:   "Color",
			wantNested: "Annatto, Turmeric",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			name, nested := SplitComposite(tc.raw)
			if name != tc.wantName || nested != tc.wantNested {
				t.Errorf("SplitComposite(%q) = (%q, %q), want (%q, %q)",
					tc.raw, name, nested, tc.wantName, tc.wantNested)
			}
		})
	}
}
