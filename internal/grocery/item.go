// Package grocery builds a user's aisle-sectioned grocery list from the
// recipes planned for a week plus the items they entered by hand.
package grocery

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/recipe"
)

// Item is one grocery-list row, either aggregated from recipes or entered by the user.
type Item struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Quantity    float64     `json:"quantity"`
	Unit        string      `json:"unit"`
	Aisle       aisle.Aisle `json:"aisle"`
	IsCustom    bool        `json:"isCustom"`
	Checked     bool        `json:"checked"`
	// Defaulted marks a quantity that contains at least one fallback of 1 for an unreadable amount.
	Defaulted bool `json:"defaulted,omitempty"`
}

// CustomIngredient is a user-entered item stored outside any recipe.
type CustomIngredient struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    recipe.Quantity `json:"quantity,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Aisle       aisle.Aisle     `json:"aisle,omitempty"`
	Checked     bool            `json:"checked"`
}

// Section is the items of one aisle.
type Section struct {
	Title aisle.Aisle `json:"title"`
	Items []Item      `json:"items"`
}

// ErrMalformedQuantity is returned when a quantity is not a non-negative number.
var ErrMalformedQuantity = errors.New("malformed quantity")

// DefaultQuantity replaces any quantity that cannot be parsed.
const DefaultQuantity = 1.0

// ParseQuantity reads a stored amount. Simple fractions ("1/2") and mixed
// numbers ("1 1/2") are accepted; otherwise the leading decimal number is used
// and any trailing text ("2 cups", "2.5kg") is ignored.
func ParseQuantity(q recipe.Quantity) (float64, error) {
	fields := strings.Fields(string(q))
	if len(fields) == 0 {
		return 0, ErrMalformedQuantity
	}

	var v float64
	if f, ok := parseFraction(fields[0]); ok {
		v = f
	} else if strings.Contains(fields[0], "/") {
		return 0, ErrMalformedQuantity
	} else {
		whole, err := leadingNumber(fields[0])
		if err != nil {
			return 0, err
		}
		v = whole
		if len(fields) > 1 && isDigits(fields[0]) {
			if f, ok := parseFraction(fields[1]); ok {
				v += f
			}
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrMalformedQuantity
	}
	return v, nil
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingNumber parses the longest decimal prefix of s.
func leadingNumber(s string) (float64, error) {
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, ErrMalformedQuantity
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, ErrMalformedQuantity
	}
	return v, nil
}

// parseFraction reads "n/d" with unsigned integer parts and a non-zero denominator.
func parseFraction(s string) (float64, bool) {
	num, den, ok := strings.Cut(s, "/")
	if !ok || !isDigits(num) || !isDigits(den) {
		return 0, false
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// key is the merge identity of an ingredient.
type key struct {
	description string
	unit        string
}

func keyOf(description, unit string) key {
	return key{
		description: strings.ToLower(strings.TrimSpace(description)),
		unit:        strings.ToLower(strings.TrimSpace(unit)),
	}
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(math.Round(q*100)/100, 'f', -1, 64)
}

// Line renders the item as "<quantity> <unit> <description>".
func (i Item) Line() string {
	return strings.Join(strings.Fields(FormatQuantity(i.Quantity)+" "+i.Unit+" "+i.Description), " ")
}
