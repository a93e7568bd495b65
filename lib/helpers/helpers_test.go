package helpers

import "testing"

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2499, "2,499.00"},
		{19.99, "19.99"},
		{1234567.5, "1,234,567.50"},
		{0, "0.00"},
	}
	for _, c := range cases {
		if got := FormatPrice(c.in, false); got != c.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPriceEscaped(t *testing.T) {
	if got := FormatPrice(19.99, true); got != "19\\.99" {
		t.Errorf("FormatPrice escaped = %q, want %q", got, "19\\.99")
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	if got := EscapeMarkdownV2("a.b-c!"); got != "a\\.b\\-c\\!" {
		t.Errorf("EscapeMarkdownV2 = %q", got)
	}
}
