package aisle

import "strings"

type keywordRule struct {
	aisle    Aisle
	keywords []string
}

// Rules are evaluated in order; the first aisle with a matching keyword wins.
var keywordRules = []keywordRule{
	{Produce, []string{"fruit", "vegetable", "berries", "leafy greens", "herbs"}},
	{MeatAndSeafood, []string{"meat", "beef", "chicken", "pork", "seafood", "fish", "lamb", "turkey", "shellfish"}},
	{Dairy, []string{"dairy", "milk", "cheese", "butter", "yogurt", "cream"}},
	{Frozen, []string{"frozen"}},
	{Snacks, []string{"snacks", "chips", "nuts"}},
	{Bakery, []string{"bread", "pastries", "bakery"}},
	{Beverages, []string{"drinks", "beverages", "juice", "tea", "coffee", "soda"}},
}

// Categorize maps a food-database description to an aisle by keyword containment.
func Categorize(description string) Aisle {
	desc := strings.ToLower(description)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return rule.aisle
			}
		}
	}
	return Extras
}
