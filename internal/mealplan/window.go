package mealplan

import "time"

// Window is an inclusive range of calendar dates in ISO form.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeekOf returns the Sunday-to-Saturday week containing t.
func WeekOf(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start = start.AddDate(0, 0, -int(start.Weekday()))
	return Window{
		Start: start.Format(DateLayout),
		End:   start.AddDate(0, 0, 6).Format(DateLayout),
	}
}

// Contains reports whether date falls inside the window. Dates that are not
// valid ISO calendar dates are never contained.
func (w Window) Contains(date string) bool {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return false
	}
	return date >= w.Start && date <= w.End
}

// Occurrence is a recipe and the number of times it is scheduled in a window.
type Occurrence struct {
	RecipeID string
	Count    int
}

// Occurrences counts how often each recipe appears inside the window across all
// meal types. Results keep first-seen order.
func Occurrences(plan *MealPlan, w Window) []Occurrence {
	if plan == nil {
		return nil
	}

	index := make(map[string]int)
	var out []Occurrence
	for _, mt := range MealTypes {
		for _, e := range plan.Meals[mt] {
			if e.RecipeID == "" || !w.Contains(e.Date) {
				continue
			}
			if i, ok := index[e.RecipeID]; ok {
				out[i].Count++
				continue
			}
			index[e.RecipeID] = len(out)
			out = append(out, Occurrence{RecipeID: e.RecipeID, Count: 1})
		}
	}
	return out
}
