package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recipeman/internal/model"
)

// PostgresIngredientRepo はPostgreSQLを使用した材料リポジトリ。
type PostgresIngredientRepo struct {
	db *sql.DB
}

// NewPostgresIngredientRepo はPostgresIngredientRepoを生成する。
func NewPostgresIngredientRepo(db *sql.DB) *PostgresIngredientRepo {
	return &PostgresIngredientRepo{db: db}
}

const ingredientColumns = `id, recipe_id, user_id, name, quantity, unit, created_at, updated_at`

func scanIngredient(row interface{ Scan(...interface{}) error }) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	err := row.Scan(
		&ing.ID, &ing.RecipeID, &ing.UserID, &ing.Name, &ing.Quantity, &ing.Unit,
		&ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// FindByID は指定IDの材料を取得する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) FindByID(ctx context.Context, id string) (*model.Ingredient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1`,
		id,
	)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient by ID: %w", err)
	}
	return ing, nil
}

// ListByUserID はユーザーの材料一覧を返す。
// recipeIDが空でない場合はそのレシピの材料に絞り込む。
func (r *PostgresIngredientRepo) ListByUserID(ctx context.Context, userID, recipeID string) ([]*model.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE user_id = $1`
	args := []interface{}{userID}
	if recipeID != "" {
		query += ` AND recipe_id = $2`
		args = append(args, recipeID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []*model.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}

	return ingredients, nil
}

// Create は材料を作成する。
func (r *PostgresIngredientRepo) Create(ctx context.Context, ingredient *model.Ingredient) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, recipe_id, user_id, name, quantity, unit, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ingredient.ID, ingredient.RecipeID, ingredient.UserID, ingredient.Name,
		ingredient.Quantity, ingredient.Unit, ingredient.CreatedAt, ingredient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", err)
	}
	return nil
}

// Update は材料を上書き更新する。
func (r *PostgresIngredientRepo) Update(ctx context.Context, ingredient *model.Ingredient) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingredients
		 SET name = $2, quantity = $3, unit = $4, updated_at = $5
		 WHERE id = $1`,
		ingredient.ID, ingredient.Name, ingredient.Quantity, ingredient.Unit, ingredient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの材料を削除する。削除対象が存在したかどうかを返す。
func (r *PostgresIngredientRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete ingredient: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ IngredientRepository = (*PostgresIngredientRepo)(nil)
