package grocery

import "grocery-planner/internal/aisle"

// BuildSections groups items by aisle in the fixed aisle order. Unknown aisle
// names follow in first-seen order. Items keep their insertion order.
func BuildSections(items []Item) []Section {
	groups := make(map[aisle.Aisle][]Item)
	var unknown []aisle.Aisle
	for _, it := range items {
		if _, seen := groups[it.Aisle]; !seen && !it.Aisle.Valid() {
			unknown = append(unknown, it.Aisle)
		}
		groups[it.Aisle] = append(groups[it.Aisle], it)
	}

	sections := []Section{}
	for _, a := range append(append([]aisle.Aisle{}, aisle.FixedOrder...), unknown...) {
		if len(groups[a]) == 0 {
			continue
		}
		sections = append(sections, Section{Title: a, Items: groups[a]})
	}
	return sections
}

// Items flattens sections back into a single list.
func Items(sections []Section) []Item {
	var out []Item
	for _, s := range sections {
		out = append(out, s.Items...)
	}
	return out
}
