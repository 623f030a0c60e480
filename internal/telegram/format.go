package telegram

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"grocery-planner/internal/grocery"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/nutrition"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🛒 *Grocery Planner*

/grocery [YYYY-MM-DD] - this week's grocery list
/add description, quantity, unit - add your own item
/custom check|uncheck|remove item-id - tick off or delete your own item
/find ingredient - search ingredient names
/plan - this week's meals
/plan add|remove meal recipe-id YYYY-MM-DD - edit the plan
/share [YYYY-MM-DD] - share the list
/nutrition [YYYY-MM-DD] - nutrition for the week or a day

Send a recipe link to clip it into the catalog.`

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%s\n```", title, safeErr)
}

func weekOf(t time.Time) mealplan.Window {
	return mealplan.WeekOf(t)
}

// parseDay reads an optional YYYY-MM-DD argument, defaulting to now.
func parseDay(arg string, now time.Time) (time.Time, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now, nil
	}
	return time.Parse(mealplan.DateLayout, arg)
}

// parseAddArgs splits "description, quantity, unit"; quantity and unit are optional.
func parseAddArgs(args string) (description, quantity, unit string, err error) {
	parts := strings.SplitN(args, ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return "", "", "", errors.New("description is required")
	}
	description = parts[0]
	if len(parts) > 1 {
		quantity = parts[1]
	}
	if len(parts) > 2 {
		unit = parts[2]
	}
	return description, quantity, unit, nil
}

// parseCustomArgs reads "check|uncheck|remove item-id".
func parseCustomArgs(args string) (action, id string, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", "", errors.New("expected an action and an item id")
	}
	switch fields[0] {
	case "check", "uncheck", "remove":
		return fields[0], fields[1], nil
	}
	return "", "", fmt.Errorf("unknown action %q", fields[0])
}

func formatList(list *grocery.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Grocery List* (%s to %s)\n", list.Window.Start, list.Window.End)
	if list.Notice != "" {
		fmt.Fprintf(&sb, "\n⚠️ _%s_\n", escape(list.Notice))
	}
	if list.Empty() {
		sb.WriteString("\n_Nothing to buy this week._\n")
		return sb.String()
	}
	for _, sec := range list.Sections {
		fmt.Fprintf(&sb, "\n*%s*\n", escape(string(sec.Title)))
		for _, it := range sec.Items {
			mark := "•"
			if it.Checked {
				mark = "✓"
			}
			fmt.Fprintf(&sb, "%s %s", mark, escape(it.Line()))
			if it.IsCustom && it.ID != "" {
				fmt.Fprintf(&sb, " `%s`", it.ID)
			}
			sb.WriteString("\n")
		}
	}
	if n := len(list.Warnings); n > 0 {
		fmt.Fprintf(&sb, "\n_%d ingredient entries needed a fallback._\n", n)
	}
	return sb.String()
}

func formatPlan(plan *mealplan.MealPlan, window mealplan.Window) string {
	byDate := make(map[string][]string)
	for _, mt := range mealplan.MealTypes {
		for _, e := range plan.Meals[mt] {
			if window.Contains(e.Date) {
				byDate[e.Date] = append(byDate[e.Date], fmt.Sprintf("%s: `%s`", mt, e.RecipeID))
			}
		}
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Meal Plan* (%s to %s)\n", window.Start, window.End)
	if len(dates) == 0 {
		sb.WriteString("\n_No meals planned._\n")
	}
	for _, d := range dates {
		fmt.Fprintf(&sb, "\n*%s*\n", d)
		for _, line := range byDate[d] {
			fmt.Fprintf(&sb, "• %s\n", line)
		}
	}
	return sb.String()
}

func formatSummary(s nutrition.Summary) string {
	p := s.Progress()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🥗 *Nutrition* (%s to %s)\n\n", s.Window.Start, s.Window.End)
	fmt.Fprintf(&sb, "• Calories: %.0f / %.0f kcal (%.0f%%)\n", s.Total.Calories, s.Goal.Calories, p.Calories*100)
	fmt.Fprintf(&sb, "• Protein: %.1f / %.0f g (%.0f%%)\n", s.Total.Protein, s.Goal.Protein, p.Protein*100)
	fmt.Fprintf(&sb, "• Carbs: %.1f / %.0f g (%.0f%%)\n", s.Total.Carbohydrates, s.Goal.Carbohydrates, p.Carbohydrates*100)
	fmt.Fprintf(&sb, "• Fat: %.1f / %.0f g (%.0f%%)\n", s.Total.Fat, s.Goal.Fat, p.Fat*100)
	if len(s.Missing) > 0 {
		fmt.Fprintf(&sb, "\n_No data for %d planned recipes._\n", len(s.Missing))
	}
	return sb.String()
}

func formatReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
