package pricesheet

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "brazilian grouped", input: "1.234,56", want: 1234.56},
		{name: "us grouped", input: "1,234.56", want: 1234.56},
		{name: "plain dot decimal", input: "1234.56", want: 1234.56},
		{name: "space grouped", input: "1 234,56", want: 1234.56},
		{name: "comma decimal", input: "45,5", want: 45.5},
		{name: "currency prefix", input: "R$ 1.234,56", want: 1234.56},
		{name: "nbsp grouped", input: "1 234,56", want: 1234.56},
		{name: "large brazilian", input: "1.234.567,89", want: 1234567.89},
		{name: "empty", input: "", want: 0},
		{name: "garbage", input: "abc", want: 0},
		{name: "negative", input: "-5", want: -5},
		{name: "integer", input: "120", want: 120},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePrice(tc.input)
			if got != tc.want {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParsePriceValuePassthrough(t *testing.T) {
	if got := ParsePriceValue(-5); got != -5 {
		t.Fatalf("got %v want -5", got)
	}
	if got := ParsePriceValue(45.5); got != 45.5 {
		t.Fatalf("got %v want 45.5", got)
	}
	if got := ParsePriceValue(nil); got != 0 {
		t.Fatalf("got %v want 0", got)
	}
	if got := ParsePriceValue("1.234,56"); got != 1234.56 {
		t.Fatalf("got %v want 1234.56", got)
	}
}
