package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/recipeman/internal/model"
)

// --- モック定義 ---

type mockRecipeRepository struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Recipe, error)
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Recipe, error)
	createFn       func(ctx context.Context, recipe *model.Recipe) error
	updateFn       func(ctx context.Context, recipe *model.Recipe) error
	deleteByIDFn   func(ctx context.Context, id string) (bool, error)
}

func (m *mockRecipeRepository) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRecipeRepository) ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	if m.createFn != nil {
		return m.createFn(ctx, recipe)
	}
	return nil
}

func (m *mockRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, recipe)
	}
	return nil
}

func (m *mockRecipeRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

func ownedRecipe(id, userID string) *model.Recipe {
	return &model.Recipe{
		ID:     id,
		UserID: userID,
		Title:  "肉じゃが",
	}
}

// --- テスト ---

func TestService_Create_SanitizesHTML(t *testing.T) {
	var saved *model.Recipe
	repo := &mockRecipeRepository{
		createFn: func(ctx context.Context, recipe *model.Recipe) error {
			saved = recipe
			return nil
		},
	}

	svc := NewService(repo, nil, nil)

	input := RecipeInput{
		Title:        "肉じゃが<script>alert(1)</script>",
		Description:  `<p>定番の煮物</p><script>alert(2)</script>`,
		Instructions: `<ol><li>切る</li></ol><img src=x onerror="alert(3)">`,
		Servings:     4,
	}

	recipe, err := svc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if recipe.Title != "肉じゃが" {
		t.Errorf("title = %q, want script tag stripped", recipe.Title)
	}
	if strings.Contains(saved.Description, "<script>") {
		t.Errorf("description should not contain script tag: %q", saved.Description)
	}
	if !strings.Contains(saved.Description, "<p>定番の煮物</p>") {
		t.Errorf("description should keep safe markup: %q", saved.Description)
	}
	if strings.Contains(saved.Instructions, "onerror") {
		t.Errorf("instructions should not contain event handler: %q", saved.Instructions)
	}
	if saved.ID == "" {
		t.Error("recipe ID should be generated")
	}
	if saved.UserID != "user-1" {
		t.Errorf("user ID = %q, want %q", saved.UserID, "user-1")
	}
}

func TestService_Create_EmptyTitle_ReturnsValidationError(t *testing.T) {
	svc := NewService(&mockRecipeRepository{}, nil, nil)

	// タグを剥がした結果が空になるケースも含む
	for _, title := range []string{"", "   ", "<b></b>"} {
		_, err := svc.Create(context.Background(), "user-1", RecipeInput{Title: title})

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRecipe {
			t.Errorf("title %q: expected INVALID_RECIPE error, got %v", title, err)
		}
	}
}

func TestService_Create_NegativeValues_ReturnsValidationError(t *testing.T) {
	svc := NewService(&mockRecipeRepository{}, nil, nil)

	inputs := []RecipeInput{
		{Title: "test", Servings: -1},
		{Title: "test", PrepTimeMinutes: -5},
		{Title: "test", CookTimeMinutes: -5},
	}

	for _, input := range inputs {
		_, err := svc.Create(context.Background(), "user-1", input)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRecipe {
			t.Errorf("input %+v: expected INVALID_RECIPE error, got %v", input, err)
		}
	}
}

func TestService_Get_OtherUsersRecipe_ReturnsNotFound(t *testing.T) {
	repo := &mockRecipeRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return ownedRecipe(id, "owner-user"), nil
		},
	}

	svc := NewService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "attacker-user", "recipe-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecipeNotFound {
		t.Errorf("expected RECIPE_NOT_FOUND for other user's recipe, got %v", err)
	}
}

func TestService_Get_Missing_ReturnsNotFound(t *testing.T) {
	svc := NewService(&mockRecipeRepository{}, nil, nil)

	_, err := svc.Get(context.Background(), "user-1", "nonexistent")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecipeNotFound {
		t.Errorf("expected RECIPE_NOT_FOUND, got %v", err)
	}
}

func TestService_Update_OtherUsersRecipe_NotUpdated(t *testing.T) {
	updateCalled := false
	repo := &mockRecipeRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return ownedRecipe(id, "owner-user"), nil
		},
		updateFn: func(ctx context.Context, recipe *model.Recipe) error {
			updateCalled = true
			return nil
		},
	}

	svc := NewService(repo, nil, nil)

	_, err := svc.Update(context.Background(), "attacker-user", "recipe-1", RecipeInput{Title: "乗っ取り"})
	if err == nil {
		t.Fatal("expected error")
	}
	if updateCalled {
		t.Error("update should not be called for other user's recipe")
	}
}

func TestService_Update_Owned_UpdatesFields(t *testing.T) {
	repo := &mockRecipeRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return ownedRecipe(id, "user-1"), nil
		},
	}

	svc := NewService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), "user-1", "recipe-1", RecipeInput{
		Title:    "カレー",
		Servings: 2,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Title != "カレー" {
		t.Errorf("title = %q, want %q", updated.Title, "カレー")
	}
	if updated.Servings != 2 {
		t.Errorf("servings = %d, want 2", updated.Servings)
	}
}

func TestService_Delete_OtherUsersRecipe_NotDeleted(t *testing.T) {
	deleteCalled := false
	repo := &mockRecipeRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return ownedRecipe(id, "owner-user"), nil
		},
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			deleteCalled = true
			return true, nil
		},
	}

	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), "attacker-user", "recipe-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if deleteCalled {
		t.Error("delete should not be called for other user's recipe")
	}
}

func TestService_List_PropagatesRepositoryError(t *testing.T) {
	repo := &mockRecipeRepository{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.Recipe, error) {
			return nil, errors.New("db down")
		},
	}

	svc := NewService(repo, nil, nil)

	_, err := svc.List(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
}
