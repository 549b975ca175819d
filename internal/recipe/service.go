// Package recipe はレシピ管理のドメインロジックを提供する。
package recipe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/recipeman/internal/model"
	"github.com/hitoshi/recipeman/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

// maxTitleLength はレシピタイトルの最大文字数。
const maxTitleLength = 200

// RecipeInput はレシピ作成・更新の入力を表す。
type RecipeInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
	Servings        int    `json:"servings"`
	PrepTimeMinutes int    `json:"prepTimeMinutes"`
	CookTimeMinutes int    `json:"cookTimeMinutes"`
	SourceURL       string `json:"sourceUrl"`
}

// MetricsRecorder はレシピ関連メトリクスの記録インターフェース。
// nilを渡した場合は記録をスキップする。
type MetricsRecorder interface {
	RecordRecipeCreated()
	RecordImportAttempt(result string)
}

// Service はレシピCRUDのサービス層。
// 所有権チェックとHTMLサニタイズはすべてこの層で行う。
type Service struct {
	recipeRepo repository.RecipeRepository
	importer   *Importer
	metrics    MetricsRecorder

	// richPolicy はDescription/Instructions用。安全なマークアップのみ許可する。
	richPolicy *bluemonday.Policy
	// strictPolicy はTitle等のプレーンテキストフィールド用。全タグを除去する。
	strictPolicy *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
// importerとmetricsはnil許容（nilの場合、取り込みは無効・メトリクスはスキップ）。
func NewService(recipeRepo repository.RecipeRepository, importer *Importer, metrics MetricsRecorder) *Service {
	return &Service{
		recipeRepo:   recipeRepo,
		importer:     importer,
		metrics:      metrics,
		richPolicy:   bluemonday.UGCPolicy(),
		strictPolicy: bluemonday.StrictPolicy(),
	}
}

// List はユーザーのレシピ一覧を作成日時降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Recipe, error) {
	recipes, err := s.recipeRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	return recipes, nil
}

// Get は指定IDのレシピを取得する。
// 他ユーザーのレシピは存在しないものとして扱う（404で所有の有無を隠す）。
func (s *Service) Get(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil || recipe.UserID != userID {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	return recipe, nil
}

// Create はレシピを作成する。入力は検証・サニタイズされる。
func (s *Service) Create(ctx context.Context, userID string, input RecipeInput) (*model.Recipe, error) {
	sanitized, err := s.sanitizeAndValidate(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	recipe := &model.Recipe{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           sanitized.Title,
		Description:     sanitized.Description,
		Instructions:    sanitized.Instructions,
		Servings:        sanitized.Servings,
		PrepTimeMinutes: sanitized.PrepTimeMinutes,
		CookTimeMinutes: sanitized.CookTimeMinutes,
		SourceURL:       sanitized.SourceURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("レシピの保存に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRecipeCreated()
	}

	return recipe, nil
}

// Update は所有レシピを上書き更新する。
func (s *Service) Update(ctx context.Context, userID, recipeID string, input RecipeInput) (*model.Recipe, error) {
	existing, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	sanitized, err := s.sanitizeAndValidate(input)
	if err != nil {
		return nil, err
	}

	existing.Title = sanitized.Title
	existing.Description = sanitized.Description
	existing.Instructions = sanitized.Instructions
	existing.Servings = sanitized.Servings
	existing.PrepTimeMinutes = sanitized.PrepTimeMinutes
	existing.CookTimeMinutes = sanitized.CookTimeMinutes
	existing.SourceURL = sanitized.SourceURL
	existing.UpdatedAt = time.Now()

	if err := s.recipeRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}

	return existing, nil
}

// Delete は所有レシピを削除する。関連する材料はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID, recipeID string) error {
	if _, err := s.Get(ctx, userID, recipeID); err != nil {
		return err
	}

	deleted, err := s.recipeRepo.DeleteByID(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewRecipeNotFoundError(recipeID)
	}

	return nil
}

// ImportFromURL は外部URLからレシピの下書きを取り込み、作成する。
// SSRF防止の検証を通過したURLに対してのみリクエストを送信する。
func (s *Service) ImportFromURL(ctx context.Context, userID, rawURL string) (*model.Recipe, error) {
	if s.importer == nil {
		return nil, model.NewImportFailedError("取り込み機能が無効です")
	}

	draft, err := s.importer.Import(ctx, rawURL)
	if err != nil {
		s.recordImport(importResultFor(err))
		return nil, err
	}

	recipe, err := s.Create(ctx, userID, RecipeInput{
		Title:       draft.Title,
		Description: draft.Description,
		SourceURL:   rawURL,
	})
	if err != nil {
		s.recordImport("failure")
		return nil, err
	}

	s.recordImport("success")
	return recipe, nil
}

func (s *Service) recordImport(result string) {
	if s.metrics != nil {
		s.metrics.RecordImportAttempt(result)
	}
}

// importResultFor は取り込みエラーからメトリクス用の結果ラベルを導出する。
func importResultFor(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeSSRFBlocked {
		return "blocked"
	}
	return "failure"
}

// sanitizeAndValidate は入力のサニタイズと検証を行う。
// タイトルは全タグ除去、本文系フィールドは安全なマークアップのみ許可する。
func (s *Service) sanitizeAndValidate(input RecipeInput) (RecipeInput, error) {
	input.Title = strings.TrimSpace(s.strictPolicy.Sanitize(input.Title))
	input.Description = s.richPolicy.Sanitize(input.Description)
	input.Instructions = s.richPolicy.Sanitize(input.Instructions)
	input.SourceURL = strings.TrimSpace(input.SourceURL)

	if input.Title == "" {
		return input, model.NewInvalidRecipeError("タイトルは必須です")
	}
	if len([]rune(input.Title)) > maxTitleLength {
		return input, model.NewInvalidRecipeError(fmt.Sprintf("タイトルは%d文字以内にしてください", maxTitleLength))
	}
	if input.Servings < 0 {
		return input, model.NewInvalidRecipeError("人数は0以上にしてください")
	}
	if input.PrepTimeMinutes < 0 || input.CookTimeMinutes < 0 {
		return input, model.NewInvalidRecipeError("時間は0以上にしてください")
	}
	if input.SourceURL != "" {
		parsed, err := url.Parse(input.SourceURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return input, model.NewInvalidRecipeError("参照元URLの形式が不正です")
		}
	}

	return input, nil
}
