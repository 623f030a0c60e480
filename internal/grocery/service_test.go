package grocery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/database"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/usda"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePlans struct {
	plan *mealplan.MealPlan
	err  error
}

func (f *fakePlans) Get(ctx context.Context, userID string) (*mealplan.MealPlan, error) {
	return f.plan, f.err
}

type fakeResolver struct {
	recipes map[string]recipe.Recipe
	asked   []string
}

func (f *fakeResolver) Resolve(ctx context.Context, ids []string) map[string]recipe.Recipe {
	f.asked = ids
	out := make(map[string]recipe.Recipe)
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok {
			out[id] = r
		}
	}
	return out
}

type fakeCustoms struct {
	items []CustomIngredient
	err   error
}

func (f *fakeCustoms) List(ctx context.Context, userID string) ([]CustomIngredient, error) {
	return f.items, f.err
}

func (f *fakeCustoms) Add(ctx context.Context, userID string, item CustomIngredient) (CustomIngredient, error) {
	if f.err != nil {
		return CustomIngredient{}, f.err
	}
	item.ID = "generated"
	f.items = append(f.items, item)
	return item, nil
}

type fakeSearcher struct {
	foods map[string][]usda.Food
	err   error
	calls int
}

func (f *fakeSearcher) SearchFoods(ctx context.Context, query string, pageSize int) ([]usda.Food, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.foods[query], nil
}

var testWindow = mealplan.Window{Start: "2024-05-12", End: "2024-05-18"}

func scenarioPlan() *mealplan.MealPlan {
	plan := mealplan.New("u1")
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r1", Date: "2024-05-13"})
	plan.Add(mealplan.Lunch, mealplan.Entry{RecipeID: "r1", Date: "2024-05-15"})
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r2", Date: "2024-05-17"})
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r3", Date: "2024-05-25"})
	return plan
}

func scenarioRecipes() map[string]recipe.Recipe {
	return map[string]recipe.Recipe{
		"r1": {ID: "r1", Title: "Salsa", Ingredients: []recipe.Ingredient{{Description: "Tomato", Quantity: "2", Unit: "cups"}}},
		"r2": {ID: "r2", Title: "Soup", Ingredients: []recipe.Ingredient{{Description: "tomato", Quantity: "1", Unit: "Cups"}}},
		"r3": {ID: "r3", Title: "Steak night", Ingredients: []recipe.Ingredient{{Description: "Steak", Quantity: "2", Unit: "lb"}}},
	}
}

func newScenarioService(searcher aisle.FoodSearcher, customs CustomStore, plans MealPlanReader) *Service {
	classifier := aisle.NewClassifier(aisle.DefaultOverrides(), searcher, zap.NewNop())
	resolver := &fakeResolver{recipes: scenarioRecipes()}
	return NewService(plans, resolver, customs, classifier, 3, zap.NewNop())
}

func TestBuildList_Scenario(t *testing.T) {
	searcher := &fakeSearcher{foods: map[string][]usda.Food{
		"tomato": {{Description: "Tomatoes, red, ripe, raw", FoodCategory: "Vegetables and Vegetable Products"}},
	}}
	svc := newScenarioService(searcher, &fakeCustoms{}, &fakePlans{plan: scenarioPlan()})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)

	require.Len(t, list.Sections, 1)
	assert.Equal(t, aisle.Produce, list.Sections[0].Title)
	require.Len(t, list.Sections[0].Items, 1)

	item := list.Sections[0].Items[0]
	assert.Equal(t, "Tomato", item.Description)
	assert.Equal(t, 5.0, item.Quantity)
	assert.Equal(t, "cups", item.Unit)
	assert.Equal(t, aisle.Produce, item.Aisle)
	assert.Equal(t, 1, searcher.calls)
	assert.Empty(t, list.Notice)
	assert.Empty(t, list.Warnings)
}

func TestBuildList_WindowFiltering(t *testing.T) {
	plan := scenarioPlan()
	resolver := &fakeResolver{recipes: scenarioRecipes()}
	svc := NewService(&fakePlans{plan: plan}, resolver, &fakeCustoms{}, newFakeClassifier(nil), 3, zap.NewNop())

	list, err := svc.BuildList(context.Background(), "u1", mealplan.Window{Start: "2024-05-19", End: "2024-05-25"})
	require.NoError(t, err)

	assert.Equal(t, []string{"r3"}, resolver.asked)
	items := Items(list.Sections)
	require.Len(t, items, 1)
	assert.Equal(t, "Steak", items[0].Description)
	assert.Equal(t, 2.0, items[0].Quantity)
}

func TestBuildList_OverrideBeatsRemote(t *testing.T) {
	plan := mealplan.New("u1")
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r3", Date: "2024-05-14"})
	searcher := &fakeSearcher{foods: map[string][]usda.Food{
		"steak": {{Description: "Beverages, steak sauce flavored drink"}},
	}}
	svc := newScenarioService(searcher, &fakeCustoms{}, &fakePlans{plan: plan})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)

	items := Items(list.Sections)
	require.Len(t, items, 1)
	assert.Equal(t, aisle.MeatAndSeafood, items[0].Aisle)
	assert.Zero(t, searcher.calls)
}

func TestBuildList_EmptyWindow(t *testing.T) {
	svc := newScenarioService(&fakeSearcher{}, &fakeCustoms{}, &fakePlans{plan: nil})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)
	assert.NotNil(t, list.Sections)
	assert.Empty(t, list.Sections)
	assert.True(t, list.Empty())
}

func TestBuildList_PlanReadFailureIsFatal(t *testing.T) {
	customs := &fakeCustoms{items: []CustomIngredient{{ID: "c1", Description: "Eggs", Quantity: "12"}}}
	svc := newScenarioService(&fakeSearcher{}, customs, &fakePlans{err: errors.New("database is locked")})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read meal plan")
	require.NotNil(t, list)
	assert.Empty(t, list.Sections, "no partial data on fatal failure")
}

func TestBuildList_CustomItems(t *testing.T) {
	customs := &fakeCustoms{items: []CustomIngredient{
		{ID: "c1", Description: "Tomato", Quantity: "2", Unit: "cups", Aisle: aisle.Produce},
		{ID: "c2", Description: "Dish soap", Quantity: "1"},
	}}
	searcher := &fakeSearcher{foods: map[string][]usda.Food{
		"tomato": {{Description: "Tomatoes, red, ripe, raw", FoodCategory: "Vegetables and Vegetable Products"}},
	}}
	svc := newScenarioService(searcher, customs, &fakePlans{plan: scenarioPlan()})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)

	require.Len(t, list.Sections, 2)
	produce := list.Sections[0]
	require.Len(t, produce.Items, 2, "custom and recipe rows with the same key coexist")
	assert.False(t, produce.Items[0].IsCustom)
	assert.True(t, produce.Items[1].IsCustom)
	assert.Equal(t, "c1", produce.Items[1].ID)

	assert.Equal(t, aisle.Extras, list.Sections[1].Title)
	assert.Equal(t, "Dish soap", list.Sections[1].Items[0].Description)
}

func TestBuildList_CustomReadFailureIsWarning(t *testing.T) {
	searcher := &fakeSearcher{foods: map[string][]usda.Food{}}
	svc := newScenarioService(searcher, &fakeCustoms{err: errors.New("boom")}, &fakePlans{plan: scenarioPlan()})

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)
	assert.Len(t, Items(list.Sections), 1)
	require.Len(t, list.Warnings, 1)
	assert.Equal(t, WarnCustomUnavailable, list.Warnings[0].Kind)
}

func TestBuildList_RateLimitNotice(t *testing.T) {
	plan := mealplan.New("u1")
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r1", Date: "2024-05-13"})
	resolver := &fakeResolver{recipes: map[string]recipe.Recipe{
		"r1": {ID: "r1", Ingredients: []recipe.Ingredient{
			{Description: "Tomato", Quantity: "1"},
			{Description: "Basil", Quantity: "1"},
			{Description: "Garlic", Quantity: "1"},
		}},
	}}
	searcher := &fakeSearcher{err: usda.ErrRateLimited}
	classifier := aisle.NewClassifier(aisle.DefaultOverrides(), searcher, zap.NewNop())
	svc := NewService(&fakePlans{plan: plan}, resolver, &fakeCustoms{}, classifier, 3, zap.NewNop())

	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls, "remote lookups stop after a 429")
	assert.Equal(t, rateLimitedNotice, list.Notice)
	for _, it := range Items(list.Sections) {
		assert.Equal(t, aisle.Extras, it.Aisle)
	}

	// Each build gets a fresh session.
	list, err = svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls)
	assert.Equal(t, rateLimitedNotice, list.Notice)
}

type slowSearcher struct {
	calls int
}

func (s *slowSearcher) SearchFoods(ctx context.Context, query string, pageSize int) ([]usda.Food, error) {
	s.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBuildList_LookupBudget(t *testing.T) {
	plan := mealplan.New("u1")
	plan.Add(mealplan.Dinner, mealplan.Entry{RecipeID: "r1", Date: "2024-05-13"})
	resolver := &fakeResolver{recipes: map[string]recipe.Recipe{
		"r1": {ID: "r1", Ingredients: []recipe.Ingredient{
			{Description: "Quinoa", Quantity: "1"},
			{Description: "Tahini", Quantity: "1"},
			{Description: "Steak", Quantity: "1"},
		}},
	}}
	searcher := &slowSearcher{}
	classifier := aisle.NewClassifier(aisle.DefaultOverrides(), searcher, zap.NewNop())
	svc := NewService(&fakePlans{plan: plan}, resolver, &fakeCustoms{}, classifier, 3, zap.NewNop(),
		WithLookupBudget(20*time.Millisecond))

	start := time.Now()
	list, err := svc.BuildList(context.Background(), "u1", testWindow)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, searcher.calls, "lookups stop once the budget is spent")
	assert.Equal(t, unavailableNotice, list.Notice)

	aisles := make(map[string]aisle.Aisle)
	for _, it := range Items(list.Sections) {
		aisles[it.Description] = it.Aisle
	}
	assert.Equal(t, aisle.Extras, aisles["Quinoa"])
	assert.Equal(t, aisle.Extras, aisles["Tahini"])
	assert.Equal(t, aisle.MeatAndSeafood, aisles["Steak"])
}

func TestAddCustom(t *testing.T) {
	customs := &fakeCustoms{}
	svc := NewService(&fakePlans{}, &fakeResolver{}, customs, newFakeClassifier(map[string]aisle.Aisle{"eggs": aisle.Dairy}), 3, zap.NewNop())

	stored, err := svc.AddCustom(context.Background(), "u1", " Eggs ", "12", "")
	require.NoError(t, err)
	assert.Equal(t, "Eggs", stored.Description)
	assert.Equal(t, aisle.Dairy, stored.Aisle)
	assert.Equal(t, "generated", stored.ID)

	_, err = svc.AddCustom(context.Background(), "u1", "  ", "1", "")
	assert.Error(t, err)
}

func TestBuildList_WithDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	plans := mealplan.NewRepository(db.SQL)
	recipes := recipe.NewRepository(db.SQL, zap.NewNop())
	customs := NewCustomRepository(db.SQL)

	for _, r := range scenarioRecipes() {
		require.NoError(t, recipes.Save(ctx, r))
	}
	require.NoError(t, plans.AddEntry(ctx, "u1", mealplan.Dinner, mealplan.Entry{RecipeID: "r1", Date: "2024-05-13"}))
	require.NoError(t, plans.AddEntry(ctx, "u1", mealplan.Lunch, mealplan.Entry{RecipeID: "r1", Date: "2024-05-14"}))
	require.NoError(t, plans.AddEntry(ctx, "u1", mealplan.Dinner, mealplan.Entry{RecipeID: "r2", Date: "2024-05-15"}))
	require.NoError(t, plans.AddEntry(ctx, "u1", mealplan.Dinner, mealplan.Entry{RecipeID: "deleted", Date: "2024-05-16"}))

	classifier := newFakeClassifier(map[string]aisle.Aisle{"tomato": aisle.Produce})
	svc := NewService(plans, recipe.NewResolver(recipes, 4, zap.NewNop()), customs, classifier, 3, zap.NewNop())

	_, err = svc.AddCustom(ctx, "u1", "Paper towels", "1", "roll")
	require.NoError(t, err)

	list, err := svc.BuildList(ctx, "u1", testWindow)
	require.NoError(t, err)

	require.Len(t, list.Sections, 2)
	assert.Equal(t, 5.0, list.Sections[0].Items[0].Quantity)
	assert.Equal(t, "Paper towels", list.Sections[1].Items[0].Description)
	require.Len(t, list.Warnings, 1)
	assert.Equal(t, WarnUnresolvedRecipe, list.Warnings[0].Kind)
}
