// Package ingredient は材料管理のドメインロジックを提供する。
package ingredient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/recipeman/internal/model"
	"github.com/hitoshi/recipeman/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength は材料名の最大文字数。
const maxNameLength = 100

// IngredientInput は材料作成・更新の入力を表す。
type IngredientInput struct {
	RecipeID string  `json:"recipeId"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Service は材料CRUDのサービス層。
// 材料は必ずユーザー所有のレシピに属する。所有権チェックはレシピ経由で行う。
type Service struct {
	ingredientRepo repository.IngredientRepository
	recipeRepo     repository.RecipeRepository

	strictPolicy *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(ingredientRepo repository.IngredientRepository, recipeRepo repository.RecipeRepository) *Service {
	return &Service{
		ingredientRepo: ingredientRepo,
		recipeRepo:     recipeRepo,
		strictPolicy:   bluemonday.StrictPolicy(),
	}
}

// List はユーザーの材料一覧を返す。recipeIDが空でない場合はレシピで絞り込む。
func (s *Service) List(ctx context.Context, userID, recipeID string) ([]*model.Ingredient, error) {
	ingredients, err := s.ingredientRepo.ListByUserID(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("材料一覧の取得に失敗しました: %w", err)
	}
	return ingredients, nil
}

// Get は指定IDの材料を取得する。
// 他ユーザーの材料は存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, ingredientID string) (*model.Ingredient, error) {
	ingredient, err := s.ingredientRepo.FindByID(ctx, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("材料の取得に失敗しました: %w", err)
	}
	if ingredient == nil || ingredient.UserID != userID {
		return nil, model.NewIngredientNotFoundError(ingredientID)
	}
	return ingredient, nil
}

// Create は材料を作成する。対象レシピがユーザー所有であることを検証する。
func (s *Service) Create(ctx context.Context, userID string, input IngredientInput) (*model.Ingredient, error) {
	sanitized, err := s.sanitizeAndValidate(input)
	if err != nil {
		return nil, err
	}

	// 材料の親レシピがユーザー所有か確認する
	recipe, err := s.recipeRepo.FindByID(ctx, sanitized.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil || recipe.UserID != userID {
		return nil, model.NewRecipeNotFoundError(sanitized.RecipeID)
	}

	now := time.Now()
	ingredient := &model.Ingredient{
		ID:        uuid.New().String(),
		RecipeID:  sanitized.RecipeID,
		UserID:    userID,
		Name:      sanitized.Name,
		Quantity:  sanitized.Quantity,
		Unit:      sanitized.Unit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ingredientRepo.Create(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("材料の保存に失敗しました: %w", err)
	}

	return ingredient, nil
}

// Update は所有材料を上書き更新する。所属レシピの付け替えは許可しない。
func (s *Service) Update(ctx context.Context, userID, ingredientID string, input IngredientInput) (*model.Ingredient, error) {
	existing, err := s.Get(ctx, userID, ingredientID)
	if err != nil {
		return nil, err
	}

	// 付け替え防止のため、RecipeIDは既存の値で固定する
	input.RecipeID = existing.RecipeID
	sanitized, err := s.sanitizeAndValidate(input)
	if err != nil {
		return nil, err
	}

	existing.Name = sanitized.Name
	existing.Quantity = sanitized.Quantity
	existing.Unit = sanitized.Unit
	existing.UpdatedAt = time.Now()

	if err := s.ingredientRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("材料の更新に失敗しました: %w", err)
	}

	return existing, nil
}

// Delete は所有材料を削除する。
func (s *Service) Delete(ctx context.Context, userID, ingredientID string) error {
	if _, err := s.Get(ctx, userID, ingredientID); err != nil {
		return err
	}

	deleted, err := s.ingredientRepo.DeleteByID(ctx, ingredientID)
	if err != nil {
		return fmt.Errorf("材料の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewIngredientNotFoundError(ingredientID)
	}

	return nil
}

// sanitizeAndValidate は入力のサニタイズと検証を行う。
func (s *Service) sanitizeAndValidate(input IngredientInput) (IngredientInput, error) {
	input.Name = strings.TrimSpace(s.strictPolicy.Sanitize(input.Name))
	input.Unit = strings.TrimSpace(s.strictPolicy.Sanitize(input.Unit))
	input.RecipeID = strings.TrimSpace(input.RecipeID)

	if input.RecipeID == "" {
		return input, model.NewInvalidIngredientError("レシピIDは必須です")
	}
	if input.Name == "" {
		return input, model.NewInvalidIngredientError("材料名は必須です")
	}
	if len([]rune(input.Name)) > maxNameLength {
		return input, model.NewInvalidIngredientError(fmt.Sprintf("材料名は%d文字以内にしてください", maxNameLength))
	}
	if input.Quantity < 0 {
		return input, model.NewInvalidIngredientError("分量は0以上にしてください")
	}

	return input, nil
}
