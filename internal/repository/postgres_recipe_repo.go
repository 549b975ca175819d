package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recipeman/internal/model"
)

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

const recipeColumns = `id, user_id, title, description, instructions,
	servings, prep_time_minutes, cook_time_minutes, source_url, created_at, updated_at`

// scanRecipe は1行分のレシピを読み取る。
func scanRecipe(row interface{ Scan(...interface{}) error }) (*model.Recipe, error) {
	recipe := &model.Recipe{}
	err := row.Scan(
		&recipe.ID, &recipe.UserID, &recipe.Title, &recipe.Description, &recipe.Instructions,
		&recipe.Servings, &recipe.PrepTimeMinutes, &recipe.CookTimeMinutes, &recipe.SourceURL,
		&recipe.CreatedAt, &recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`,
		id,
	)

	recipe, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe by ID: %w", err)
	}
	return recipe, nil
}

// ListByUserID はユーザーのレシピ一覧を作成日時降順で返す。
func (r *PostgresRecipeRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*model.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	return recipes, nil
}

// Create はレシピを作成する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recipes (id, user_id, title, description, instructions,
		 servings, prep_time_minutes, cook_time_minutes, source_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		recipe.ID, recipe.UserID, recipe.Title, recipe.Description, recipe.Instructions,
		recipe.Servings, recipe.PrepTimeMinutes, recipe.CookTimeMinutes, recipe.SourceURL,
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update はレシピを上書き更新する。
func (r *PostgresRecipeRepo) Update(ctx context.Context, recipe *model.Recipe) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recipes
		 SET title = $2, description = $3, instructions = $4, servings = $5,
		     prep_time_minutes = $6, cook_time_minutes = $7, source_url = $8, updated_at = $9
		 WHERE id = $1`,
		recipe.ID, recipe.Title, recipe.Description, recipe.Instructions, recipe.Servings,
		recipe.PrepTimeMinutes, recipe.CookTimeMinutes, recipe.SourceURL, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのレシピを削除する。削除対象が存在したかどうかを返す。
func (r *PostgresRecipeRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
