// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/recipeman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。Profileはdataカラムにそのままシリアライズされる。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れ・未検出の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しないIDでもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// RecipeRepository はレシピデータの永続化インターフェース。
type RecipeRepository interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)

	// ListByUserID はユーザーのレシピ一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error)

	// Create はレシピを作成する。
	Create(ctx context.Context, recipe *model.Recipe) error

	// Update はレシピを上書き更新する。
	Update(ctx context.Context, recipe *model.Recipe) error

	// DeleteByID は指定IDのレシピを削除する。関連する材料はCASCADE削除される。
	// 削除対象が存在したかどうかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// IngredientRepository は材料データの永続化インターフェース。
type IngredientRepository interface {
	// FindByID は指定IDの材料を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ingredient, error)

	// ListByUserID はユーザーの材料一覧を返す。
	// recipeIDが空でない場合はそのレシピの材料に絞り込む。
	ListByUserID(ctx context.Context, userID, recipeID string) ([]*model.Ingredient, error)

	// Create は材料を作成する。
	Create(ctx context.Context, ingredient *model.Ingredient) error

	// Update は材料を上書き更新する。
	Update(ctx context.Context, ingredient *model.Ingredient) error

	// DeleteByID は指定IDの材料を削除する。削除対象が存在したかどうかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
