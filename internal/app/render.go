package app

import (
	"fmt"
	"io"
	"sort"

	"grocery-planner/internal/grocery"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/nutrition"
)

// WriteList prints a grocery list as plain text.
func WriteList(w io.Writer, list *grocery.List) {
	fmt.Fprintf(w, "=== GROCERY LIST %s to %s ===\n", list.Window.Start, list.Window.End)
	if list.Notice != "" {
		fmt.Fprintf(w, "! %s\n", list.Notice)
	}
	if list.Empty() {
		fmt.Fprintln(w, "Nothing to buy.")
	}
	for _, sec := range list.Sections {
		fmt.Fprintf(w, "\n%s\n", sec.Title)
		for _, it := range sec.Items {
			box := "[ ]"
			if it.Checked {
				box = "[x]"
			}
			fmt.Fprintf(w, "  %s %s", box, it.Line())
			if it.IsCustom {
				fmt.Fprintf(w, " (custom %s)", it.ID)
			}
			fmt.Fprintln(w)
		}
	}
	if len(list.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d data warnings:\n", len(list.Warnings))
		for _, warn := range list.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}

// WritePlan prints the entries of a plan that fall in window, by date.
func WritePlan(w io.Writer, plan *mealplan.MealPlan, window mealplan.Window) {
	type row struct {
		date     string
		mealType mealplan.MealType
		recipeID string
	}
	var rows []row
	for _, mt := range mealplan.MealTypes {
		for _, e := range plan.Meals[mt] {
			if window.Contains(e.Date) {
				rows = append(rows, row{e.Date, mt, e.RecipeID})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date < rows[j].date })

	fmt.Fprintf(w, "=== MEAL PLAN %s to %s ===\n", window.Start, window.End)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No meals planned.")
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s  %-9s %s\n", r.date, r.mealType, r.recipeID)
	}
}

// WriteSummary prints totals against goals.
func WriteSummary(w io.Writer, s nutrition.Summary) {
	p := s.Progress()
	fmt.Fprintf(w, "=== NUTRITION %s to %s ===\n", s.Window.Start, s.Window.End)
	fmt.Fprintf(w, "Calories  %8.1f / %-7.0f kcal %3.0f%%\n", s.Total.Calories, s.Goal.Calories, p.Calories*100)
	fmt.Fprintf(w, "Protein   %8.1f / %-7.0f g    %3.0f%%\n", s.Total.Protein, s.Goal.Protein, p.Protein*100)
	fmt.Fprintf(w, "Carbs     %8.1f / %-7.0f g    %3.0f%%\n", s.Total.Carbohydrates, s.Goal.Carbohydrates, p.Carbohydrates*100)
	fmt.Fprintf(w, "Fat       %8.1f / %-7.0f g    %3.0f%%\n", s.Total.Fat, s.Goal.Fat, p.Fat*100)
	if len(s.Missing) > 0 {
		fmt.Fprintf(w, "No nutrition data for: %v\n", s.Missing)
	}
}
