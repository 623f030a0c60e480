package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/config"
	"grocery-planner/internal/ghost"
	"grocery-planner/internal/grocery"
	"grocery-planner/internal/llm"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shared"
	"grocery-planner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	posts []ghost.Post
	err   error
}

func (f *fakeCatalog) FetchRecipes(ctx context.Context) ([]ghost.Post, error) {
	return f.posts, f.err
}

type fakeTextGenerator struct {
	calls int
}

func (f *fakeTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	f.calls++
	if strings.Contains(prompt, "broken") {
		return llm.ContentResponse{}, errors.New("model overloaded")
	}
	return llm.ContentResponse{
		Content: `{"title": "Tomato Salad", "ingredients": [{"description": "tomato", "quantity": "2", "unit": "cup"}]}`,
		Usage:   shared.TokenUsage{Model: "test-model", PromptTokens: 10, CompletionTokens: 5},
	}, nil
}

// usdaHandler answers tomato searches with a vegetable and everything else with no hits.
func usdaHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/foods/search" && r.URL.Query().Get("query") == "tomato":
		fmt.Fprint(w, `{"totalHits": 1, "foods": [{"fdcId": 11529, "description": "Tomatoes, red, ripe, raw", "foodCategory": "Vegetables and Vegetable Products"}]}`)
	case r.URL.Path == "/foods/search":
		fmt.Fprint(w, `{"totalHits": 0, "foods": []}`)
	case r.URL.Path == "/food/11529":
		fmt.Fprint(w, `{"fdcId": 11529, "description": "Tomatoes, red, ripe, raw", "foodNutrients": [
			{"nutrient": {"name": "Energy", "unitName": "kcal"}, "amount": 18},
			{"nutrient": {"name": "Energy", "unitName": "kJ"}, "amount": 74},
			{"nutrient": {"name": "Protein", "unitName": "g"}, "amount": 0.9},
			{"nutrient": {"name": "Carbohydrate, by difference", "unitName": "g"}, "amount": 3.9},
			{"nutrient": {"name": "Total lipid (fat)", "unitName": "g"}, "amount": 0.2}
		]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(usdaHandler))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		DatabasePath:         filepath.Join(dir, "test.db"),
		RecipeStoragePath:    filepath.Join(dir, "recipes"),
		USDAAPIKey:           "test_key",
		USDABaseURL:          server.URL,
		USDARatePerHour:      1000,
		USDAFailureThreshold: 3,
		ShareBaseURL:         "https://lists.test/grocerylist.html",
	}

	opts = append([]Option{WithIngestDelay(0)}, opts...)
	a, err := New(context.Background(), cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

var wednesday = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

func saveTomatoSalad(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.recipes.Save(context.Background(), recipe.Recipe{
		ID:          "p1",
		Title:       "Tomato Salad",
		Ingredients: []recipe.Ingredient{{Description: "tomato", Quantity: "2", Unit: "cup"}},
		UpdatedAt:   "2024-05-01T10:00:00Z",
	}))
}

func TestIngestRecipes(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{posts: []ghost.Post{
		{ID: "p1", Title: "Tomato Salad", HTML: "<p>2 cups tomato</p>", UpdatedAt: "2024-05-01T10:00:00.000+00:00"},
		{ID: "p2", Title: "Mystery", HTML: "<p>broken</p>", UpdatedAt: "2024-05-01T10:00:00.000+00:00"},
	}}
	gen := &fakeTextGenerator{}
	a := newTestApp(t, WithCatalog(catalog), WithTextGenerator(gen))

	report, err := a.IngestRecipes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, IngestReport{Fetched: 2, Saved: 1, Failed: 1}, report)

	rec, err := a.recipes.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Salad", rec.Title)
	require.Len(t, rec.Ingredients, 1)

	backups, err := storage.NewRecipeStore(a.cfg.RecipeStoragePath)
	require.NoError(t, err)
	saved, _, err := backups.ListAll()
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	usage, err := a.Usage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
	assert.Equal(t, 10, usage[0].TotalPrompt)

	t.Run("SecondRunSkipsUpToDate", func(t *testing.T) {
		before := gen.calls
		report, err := a.IngestRecipes(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, IngestReport{Fetched: 2, Skipped: 1, Failed: 1}, report)
		assert.Equal(t, before+1, gen.calls)
	})

	t.Run("Prune", func(t *testing.T) {
		require.NoError(t, a.recipes.Save(ctx, recipe.Recipe{ID: "unpublished", Title: "Gone"}))
		require.NoError(t, a.recipes.Save(ctx, recipe.Recipe{ID: "clip-abc", Title: "Clipped"}))

		report, err := a.IngestRecipes(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Pruned)

		_, err = a.recipes.Get(ctx, "unpublished")
		assert.ErrorIs(t, err, recipe.ErrNotFound)
		_, err = a.recipes.Get(ctx, "clip-abc")
		assert.NoError(t, err)
		_, err = a.recipes.Get(ctx, "p1")
		assert.NoError(t, err)
	})

	t.Run("FetchError", func(t *testing.T) {
		catalog.err = errors.New("ghost down")
		defer func() { catalog.err = nil }()

		_, err := a.IngestRecipes(ctx, false)
		assert.ErrorContains(t, err, "ghost down")
	})
}

func TestIngestRecipes_NotConfigured(t *testing.T) {
	a := newTestApp(t, WithTextGenerator(&fakeTextGenerator{}))

	_, err := a.IngestRecipes(context.Background(), false)
	assert.ErrorIs(t, err, errCatalogDisabled)
}

func TestImportRecipes(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	dir := t.TempDir()
	src, err := storage.NewRecipeStore(dir)
	require.NoError(t, err)
	require.NoError(t, src.Save(recipe.Recipe{ID: "r1", Title: "Soup", UpdatedAt: "2024-05-01T10:00:00Z"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("not json"), 0644))

	n, err := a.ImportRecipes(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = a.ImportRecipes(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := a.recipes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGroceryFlow(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	saveTomatoSalad(t, a)

	require.NoError(t, a.AddToPlan(ctx, "u1", "dinner", "p1", "2024-05-08"))
	require.NoError(t, a.AddToPlan(ctx, "u1", "lunch", "p1", "2024-05-09"))
	require.NoError(t, a.AddToPlan(ctx, "u1", "lunch", "p1", "2024-05-20"))

	assert.ErrorIs(t, a.AddToPlan(ctx, "u1", "dinner", "missing", "2024-05-08"), recipe.ErrNotFound)
	assert.Error(t, a.AddToPlan(ctx, "u1", "brunch", "p1", "2024-05-08"))

	custom, err := a.AddCustom(ctx, "u1", "paper towels", "2", "rolls")
	require.NoError(t, err)
	assert.Equal(t, aisle.Extras, custom.Aisle)

	list, err := a.GroceryList(ctx, "u1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, mealplan.Window{Start: "2024-05-05", End: "2024-05-11"}, list.Window)
	require.Len(t, list.Sections, 2)
	assert.Equal(t, aisle.Produce, list.Sections[0].Title)
	require.Len(t, list.Sections[0].Items, 1)
	assert.Equal(t, "4 cup tomato", list.Sections[0].Items[0].Line())
	assert.Equal(t, aisle.Extras, list.Sections[1].Title)
	assert.True(t, list.Sections[1].Items[0].IsCustom)

	var out strings.Builder
	WriteList(&out, list)
	assert.Contains(t, out.String(), "Produce\n  [ ] 4 cup tomato")
	assert.Contains(t, out.String(), "2 rolls paper towels (custom "+custom.ID+")")

	t.Run("Share", func(t *testing.T) {
		res, err := a.Share(ctx, "u1", wednesday)
		require.NoError(t, err)
		assert.Equal(t, "https://lists.test/grocerylist.html?groceryListId="+res.ID, res.Link)
		assert.Contains(t, res.Message, "4 cup tomato\n2 rolls paper towels")

		rec, err := a.SharedList(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, "u1", rec.Owner)
		assert.Len(t, rec.GroceryItems, 1)
		assert.Len(t, rec.CustomIngredients, 1)
	})

	t.Run("DayNutrition", func(t *testing.T) {
		s, err := a.DayNutrition(ctx, "u1", "2024-05-08")
		require.NoError(t, err)
		assert.InDelta(t, 86.4, s.Total.Calories, 0.01)
		assert.InDelta(t, 4.3, s.Total.Protein, 0.01)
		assert.InDelta(t, 18.7, s.Total.Carbohydrates, 0.01)
		assert.InDelta(t, 1.0, s.Total.Fat, 0.01)
		assert.Empty(t, s.Missing)
	})

	t.Run("CheckAndRemoveCustom", func(t *testing.T) {
		require.NoError(t, a.CheckCustom(ctx, "u1", custom.ID, true))

		list, err := a.GroceryList(ctx, "u1", wednesday)
		require.NoError(t, err)
		require.Len(t, list.Sections, 2)
		assert.True(t, list.Sections[1].Items[0].Checked)

		var out strings.Builder
		WriteList(&out, list)
		assert.Contains(t, out.String(), "[x] 2 rolls paper towels")

		require.NoError(t, a.CheckCustom(ctx, "u1", custom.ID, false))
		require.NoError(t, a.RemoveCustom(ctx, "u1", custom.ID))
		assert.ErrorIs(t, a.RemoveCustom(ctx, "u1", custom.ID), grocery.ErrCustomNotFound)
		assert.ErrorIs(t, a.CheckCustom(ctx, "u1", custom.ID, true), grocery.ErrCustomNotFound)

		list, err = a.GroceryList(ctx, "u1", wednesday)
		require.NoError(t, err)
		require.Len(t, list.Sections, 1)
		assert.Equal(t, aisle.Produce, list.Sections[0].Title)
	})

	t.Run("RemoveAndReschedule", func(t *testing.T) {
		require.NoError(t, a.Reschedule(ctx, "u1", "lunch", "p1", "2024-05-20", "2024-05-10"))
		require.NoError(t, a.RemoveFromPlan(ctx, "u1", "dinner", "p1", "2024-05-08"))
		assert.ErrorIs(t, a.RemoveFromPlan(ctx, "u1", "dinner", "p1", "2024-05-08"), mealplan.ErrEntryNotFound)

		plan, err := a.Plan(ctx, "u1")
		require.NoError(t, err)
		var out strings.Builder
		WritePlan(&out, plan, mealplan.WeekOf(wednesday))
		assert.Equal(t, "=== MEAL PLAN 2024-05-05 to 2024-05-11 ===\n"+
			"2024-05-09  lunch     p1\n"+
			"2024-05-10  lunch     p1\n", out.String())
	})
}

func TestClipURL_NotConfigured(t *testing.T) {
	a := newTestApp(t)
	a.clipper = nil

	_, err := a.ClipURL(context.Background(), "https://example.com/recipe")
	assert.ErrorIs(t, err, errExtractionDisabled)
}
