// Package aisle assigns grocery ingredients to store aisles.
package aisle

import "strings"

// Aisle is one of the fixed grocery-store sections a shopping list is grouped by.
type Aisle string

const (
	Produce        Aisle = "Produce"
	MeatAndSeafood Aisle = "Meat and Seafood"
	Dairy          Aisle = "Dairy"
	Frozen         Aisle = "Frozen"
	Snacks         Aisle = "Snacks"
	Bakery         Aisle = "Bakery"
	Beverages      Aisle = "Beverages"
	// Extras is the catch-all for anything no rule recognizes.
	Extras Aisle = "Extras"
)

// FixedOrder is the display priority of aisles.
var FixedOrder = []Aisle{
	Produce,
	MeatAndSeafood,
	Dairy,
	Frozen,
	Snacks,
	Bakery,
	Beverages,
	Extras,
}

// Valid reports whether a is part of the fixed aisle set.
func (a Aisle) Valid() bool {
	for _, known := range FixedOrder {
		if a == known {
			return true
		}
	}
	return false
}

// OrValid returns a when it is a known aisle and Extras otherwise.
func (a Aisle) OrValid() Aisle {
	if a.Valid() {
		return a
	}
	return Extras
}

// Normalize lowercases and trims an ingredient description for table lookups.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}
