package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"grocery-planner/internal/app"
	"grocery-planner/internal/config"
	"grocery-planner/internal/logging"
	"grocery-planner/internal/mealplan"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		application.Close()
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "grocery":
		fs := flag.NewFlagSet("grocery", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		week := fs.String("week", "", "Any date (YYYY-MM-DD) in the week; defaults to today")
		fs.Parse(args)

		day, err := parseDay(*week)
		if err != nil {
			return err
		}
		list, err := a.GroceryList(ctx, *user, day)
		if err != nil {
			return err
		}
		app.WriteList(os.Stdout, list)

	case "plan":
		fs := flag.NewFlagSet("plan", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		week := fs.String("week", "", "Any date (YYYY-MM-DD) in the week; defaults to today")
		fs.Parse(args)

		day, err := parseDay(*week)
		if err != nil {
			return err
		}
		plan, err := a.Plan(ctx, *user)
		if err != nil {
			return err
		}
		app.WritePlan(os.Stdout, plan, mealplan.WeekOf(day))

	case "plan-add", "plan-remove":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		meal := fs.String("meal", "dinner", "Meal type: breakfast, lunch, dinner, dessert or snack")
		recipeID := fs.String("recipe", "", "Recipe ID")
		date := fs.String("date", "", "Date (YYYY-MM-DD)")
		fs.Parse(args)

		if command == "plan-add" {
			if err := a.AddToPlan(ctx, *user, *meal, *recipeID, *date); err != nil {
				return err
			}
		} else if err := a.RemoveFromPlan(ctx, *user, *meal, *recipeID, *date); err != nil {
			return err
		}
		fmt.Println("Plan updated.")

	case "plan-move":
		fs := flag.NewFlagSet("plan-move", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		meal := fs.String("meal", "dinner", "Meal type")
		recipeID := fs.String("recipe", "", "Recipe ID")
		from := fs.String("from", "", "Current date (YYYY-MM-DD)")
		to := fs.String("to", "", "New date (YYYY-MM-DD)")
		fs.Parse(args)

		if err := a.Reschedule(ctx, *user, *meal, *recipeID, *from, *to); err != nil {
			return err
		}
		fmt.Println("Plan updated.")

	case "custom-add":
		fs := flag.NewFlagSet("custom-add", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		quantity := fs.String("quantity", "", "Quantity, e.g. 2 or 1/2")
		unit := fs.String("unit", "", "Unit")
		fs.Parse(args)

		item, err := a.AddCustom(ctx, *user, fs.Arg(0), *quantity, *unit)
		if err != nil {
			return err
		}
		fmt.Printf("Added %q to %s (id %s).\n", item.Description, item.Aisle, item.ID)

	case "custom-check":
		fs := flag.NewFlagSet("custom-check", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		id := fs.String("id", "", "Custom item ID")
		uncheck := fs.Bool("uncheck", false, "Mark the item as not bought")
		fs.Parse(args)

		if err := a.CheckCustom(ctx, *user, *id, !*uncheck); err != nil {
			return err
		}
		fmt.Println("List updated.")

	case "custom-remove":
		fs := flag.NewFlagSet("custom-remove", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		id := fs.String("id", "", "Custom item ID")
		fs.Parse(args)

		if err := a.RemoveCustom(ctx, *user, *id); err != nil {
			return err
		}
		fmt.Println("Item removed.")

	case "share":
		fs := flag.NewFlagSet("share", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		week := fs.String("week", "", "Any date (YYYY-MM-DD) in the week; defaults to today")
		fs.Parse(args)

		day, err := parseDay(*week)
		if err != nil {
			return err
		}
		res, err := a.Share(ctx, *user, day)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)

	case "nutrition":
		fs := flag.NewFlagSet("nutrition", flag.ExitOnError)
		user := fs.String("user", "default", "User ID")
		date := fs.String("date", "", "Single day (YYYY-MM-DD); the whole week when empty")
		week := fs.String("week", "", "Any date (YYYY-MM-DD) in the week; defaults to today")
		fs.Parse(args)

		if *date != "" {
			s, err := a.DayNutrition(ctx, *user, *date)
			if err != nil {
				return err
			}
			app.WriteSummary(os.Stdout, s)
			return nil
		}
		day, err := parseDay(*week)
		if err != nil {
			return err
		}
		s, err := a.WeekNutrition(ctx, *user, day)
		if err != nil {
			return err
		}
		app.WriteSummary(os.Stdout, s)

	case "ingest":
		fs := flag.NewFlagSet("ingest", flag.ExitOnError)
		prune := fs.Bool("prune", false, "Delete catalog recipes no longer published on Ghost")
		fs.Parse(args)

		report, err := a.IngestRecipes(ctx, *prune)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %d, saved %d, skipped %d, failed %d, pruned %d.\n",
			report.Fetched, report.Saved, report.Skipped, report.Failed, report.Pruned)

	case "clip":
		rec, err := a.ClipURL(ctx, firstArg(args))
		if rec != nil {
			fmt.Printf("Saved %q as %s.\n", rec.Title, rec.ID)
		}
		return err

	case "import-recipes":
		fs := flag.NewFlagSet("import-recipes", flag.ExitOnError)
		dir := fs.String("dir", "", "Directory of recipe JSON files; defaults to RECIPE_STORAGE_PATH")
		fs.Parse(args)

		n, err := a.ImportRecipes(ctx, *dir)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d recipes.\n", n)

	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)

		affected, err := a.CleanupMetrics(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse(mealplan.DateLayout, s)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printUsage() {
	fmt.Println("Usage: grocery-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  grocery            Print the grocery list for a week")
	fmt.Println("  plan               Print the meal plan for a week")
	fmt.Println("  plan-add           Schedule a recipe")
	fmt.Println("  plan-remove        Unschedule a recipe")
	fmt.Println("  plan-move          Move a scheduled recipe to another date")
	fmt.Println("  custom-add         Add your own item: custom-add [-quantity 2] [-unit rolls] \"paper towels\"")
	fmt.Println("  custom-check       Tick off your own item: custom-check -id <id> [-uncheck]")
	fmt.Println("  custom-remove      Delete your own item: custom-remove -id <id>")
	fmt.Println("  share              Share the grocery list and print the message")
	fmt.Println("  nutrition          Print planned nutrition against goals")
	fmt.Println("  ingest             Fetch and extract recipes from Ghost")
	fmt.Println("  clip <url>         Extract a recipe from a web page into the catalog")
	fmt.Println("  import-recipes     Load recipe JSON files into the database")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
