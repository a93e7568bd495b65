package extract

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"₹2,499.00", 2499.00},
		{"$19.99", 19.99},
		{"1,299", 1299},
		{"EUR 49.90", 49.90},
		{"  R$ 3.50 ", 3.50},
		{"2,34,999", 234999},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeRejectsNonNumeric(t *testing.T) {
	// "1.234.567" covers dot-separated thousands: ambiguous, so rejected.
	for _, in := range []string{"", "Currently unavailable", "₹", "...", "1.234.567"} {
		if _, err := Normalize(in); !errors.Is(err, ErrPriceParse) {
			t.Errorf("Normalize(%q) err = %v, want ErrPriceParse", in, err)
		}
	}
}

func TestPricePicksFirstRuleInPriorityOrder(t *testing.T) {
	html := `<html><body>
		<span class="a-price-whole">99</span>
		<span id="priceblock_dealprice">$49.99</span>
		<span id="priceblock_ourprice">$59.99</span>
	</body></html>`

	got, err := Price(html, DefaultRules)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 59.99 {
		t.Errorf("Price = %v, want 59.99 (first rule wins)", got)
	}
}

func TestPriceFallsThroughToLaterRules(t *testing.T) {
	html := `<html><body><span class="a-price-whole">1,299</span></body></html>`

	got, err := Price(html, DefaultRules)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 1299 {
		t.Errorf("Price = %v, want 1299", got)
	}
}

func TestPriceUsesFirstOfMultipleMatches(t *testing.T) {
	html := `<html><body>
		<span class="a-price-whole">10.50</span>
		<span class="a-price-whole">999</span>
	</body></html>`

	got, err := Price(html, []string{".a-price-whole"})
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 10.50 {
		t.Errorf("Price = %v, want first match 10.50", got)
	}
}

func TestPriceNotFound(t *testing.T) {
	html := `<html><body><p>no price here</p></body></html>`

	if _, err := Price(html, DefaultRules); !errors.Is(err, ErrPriceNotFound) {
		t.Errorf("err = %v, want ErrPriceNotFound", err)
	}
}

func TestPriceParseErrorOnNonNumericMatch(t *testing.T) {
	html := `<html><body><span id="priceblock_ourprice">Currently unavailable</span></body></html>`

	if _, err := Price(html, DefaultRules); !errors.Is(err, ErrPriceParse) {
		t.Errorf("err = %v, want ErrPriceParse", err)
	}
}
