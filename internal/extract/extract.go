package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

var (
	// ErrPriceNotFound means no extraction rule matched any content.
	ErrPriceNotFound = errors.New("no price found on page")
	// ErrPriceParse means a rule matched but the text holds no finite number.
	ErrPriceParse = errors.New("matched text is not a price")
)

// DefaultRules are tried in priority order. The selectors cover the usual
// placements on Amazon listing pages.
var DefaultRules = []string{
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	".a-price-whole",
}

// Price finds the first text fragment matched by the rules and normalizes it
// to a number. It is pure: no network, no clock, same input same output.
func Price(html string, rules []string) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, errors.Wrap(err, "could not parse document")
	}

	for _, rule := range rules {
		text := strings.TrimSpace(doc.Find(rule).First().Text())
		if text == "" {
			continue
		}
		return Normalize(text)
	}
	return 0, ErrPriceNotFound
}

// Normalize strips currency symbols and thousands separators, keeping only
// digits and the decimal point, then parses the remainder. Text that keeps
// more than one decimal point, like dot-separated thousands, is rejected
// rather than guessed at.
func Normalize(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, errors.Wrapf(ErrPriceParse, "nothing numeric in %q", text)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Wrapf(ErrPriceParse, "could not parse %q", cleaned)
	}
	return value, nil
}
