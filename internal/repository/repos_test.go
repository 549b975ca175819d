package repository

import (
	"testing"
)

// 各Postgresリポジトリがインターフェース契約を満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
	var _ IngredientRepository = (*PostgresIngredientRepo)(nil)
}

func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresIdentityRepo(nil) == nil {
		t.Fatal("expected non-nil identity repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Fatal("expected non-nil session repo")
	}
	if NewPostgresRecipeRepo(nil) == nil {
		t.Fatal("expected non-nil recipe repo")
	}
	if NewPostgresIngredientRepo(nil) == nil {
		t.Fatal("expected non-nil ingredient repo")
	}
}
