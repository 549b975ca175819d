// Package docs はAPIドキュメント（OpenAPI 3.0）の生成と公開を提供する。
package docs

import (
	"encoding/json"
	"fmt"
)

// APIVersion は公開するAPIドキュメントのバージョン。
const APIVersion = "1.0.0"

// Document はOpenAPI 3.0ドキュメントを組み立てて返す。
// ルート定義と同期を保つため、パスはハンドラー登録と同じ一覧から記述している。
func Document(port int) map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "Recipeman API",
			"version":     APIVersion,
			"description": "GitHubログインとセッション認証を備えたレシピ管理API",
		},
		"servers": []map[string]any{
			{"url": fmt.Sprintf("http://localhost:%d", port)},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"cookieAuth": map[string]any{
					"type": "apiKey",
					"in":   "cookie",
					"name": "session_id",
				},
			},
			"schemas": schemas(),
		},
		"paths": paths(),
	}
}

// MarshalDocument はOpenAPIドキュメントをJSONにシリアライズする。
func MarshalDocument(port int) ([]byte, error) {
	return json.MarshalIndent(Document(port), "", "  ")
}

func schemas() map[string]any {
	return map[string]any{
		"Recipe": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":              map[string]any{"type": "string", "format": "uuid"},
				"title":           map[string]any{"type": "string"},
				"description":     map[string]any{"type": "string"},
				"instructions":    map[string]any{"type": "string"},
				"servings":        map[string]any{"type": "integer"},
				"prepTimeMinutes": map[string]any{"type": "integer"},
				"cookTimeMinutes": map[string]any{"type": "integer"},
				"sourceUrl":       map[string]any{"type": "string"},
				"createdAt":       map[string]any{"type": "string", "format": "date-time"},
				"updatedAt":       map[string]any{"type": "string", "format": "date-time"},
			},
			"required": []string{"id", "title"},
		},
		"RecipeInput": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":           map[string]any{"type": "string"},
				"description":     map[string]any{"type": "string"},
				"instructions":    map[string]any{"type": "string"},
				"servings":        map[string]any{"type": "integer"},
				"prepTimeMinutes": map[string]any{"type": "integer"},
				"cookTimeMinutes": map[string]any{"type": "integer"},
				"sourceUrl":       map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		},
		"Ingredient": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "string", "format": "uuid"},
				"recipeId":  map[string]any{"type": "string", "format": "uuid"},
				"name":      map[string]any{"type": "string"},
				"quantity":  map[string]any{"type": "number"},
				"unit":      map[string]any{"type": "string"},
				"createdAt": map[string]any{"type": "string", "format": "date-time"},
				"updatedAt": map[string]any{"type": "string", "format": "date-time"},
			},
			"required": []string{"id", "recipeId", "name"},
		},
		"IngredientInput": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recipeId": map[string]any{"type": "string", "format": "uuid"},
				"name":     map[string]any{"type": "string"},
				"quantity": map[string]any{"type": "number"},
				"unit":     map[string]any{"type": "string"},
			},
			"required": []string{"recipeId", "name"},
		},
		"ImportInput": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "format": "uri"},
			},
			"required": []string{"url"},
		},
		"AuthStatus": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"loggedIn": map[string]any{"type": "boolean"},
				"user": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"username":    map[string]any{"type": "string"},
						"displayName": map[string]any{"type": "string"},
					},
				},
			},
			"required": []string{"loggedIn"},
		},
		"Error": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
			"required": []string{"message"},
		},
	}
}

func paths() map[string]any {
	secured := []map[string]any{{"cookieAuth": []string{}}}

	return map[string]any{
		"/auth/github": map[string]any{
			"get": map[string]any{
				"tags":      []string{"auth"},
				"summary":   "GitHub OAuthログインを開始する",
				"responses": redirectResponse("GitHubの認可画面へリダイレクト"),
			},
		},
		"/auth/github/callback": map[string]any{
			"get": map[string]any{
				"tags":    []string{"auth"},
				"summary": "GitHub OAuthコールバック",
				"parameters": []map[string]any{
					{"name": "code", "in": "query", "schema": map[string]any{"type": "string"}},
					{"name": "state", "in": "query", "schema": map[string]any{"type": "string"}},
				},
				"responses": redirectResponse("ログイン処理後、トップページへリダイレクト"),
			},
		},
		"/auth/logout": map[string]any{
			"get": map[string]any{
				"tags":      []string{"auth"},
				"summary":   "ログアウトしてセッションを破棄する",
				"responses": redirectResponse("トップページへリダイレクト"),
			},
		},
		"/auth/api/auth/status": map[string]any{
			"get": map[string]any{
				"tags":    []string{"auth"},
				"summary": "ログイン状態を確認する",
				"responses": map[string]any{
					"200": jsonResponse("ログイン状態", "#/components/schemas/AuthStatus"),
					"401": jsonResponse("未ログイン", "#/components/schemas/AuthStatus"),
				},
			},
		},
		"/api/user/me": map[string]any{
			"get": map[string]any{
				"tags":     []string{"user"},
				"summary":  "ログイン中ユーザーの情報を取得する",
				"security": secured,
				"responses": map[string]any{
					"200": jsonResponseInline("ユーザー名", map[string]any{
						"type": "object",
						"properties": map[string]any{
							"username": map[string]any{"type": "string"},
						},
					}),
					"401": jsonResponse("未認証", "#/components/schemas/Error"),
				},
			},
		},
		"/api/recipes": map[string]any{
			"get": map[string]any{
				"tags":     []string{"recipes"},
				"summary":  "レシピ一覧を取得する",
				"security": secured,
				"responses": map[string]any{
					"200": jsonResponseInline("レシピ一覧", map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "#/components/schemas/Recipe"},
					}),
					"401": jsonResponse("未認証", "#/components/schemas/Error"),
				},
			},
			"post": map[string]any{
				"tags":        []string{"recipes"},
				"summary":     "レシピを作成する",
				"security":    secured,
				"requestBody": jsonRequestBody("#/components/schemas/RecipeInput"),
				"responses": map[string]any{
					"201": jsonResponse("作成されたレシピ", "#/components/schemas/Recipe"),
					"400": jsonResponse("入力エラー", "#/components/schemas/Error"),
					"401": jsonResponse("未認証", "#/components/schemas/Error"),
				},
			},
		},
		"/api/recipes/{id}": map[string]any{
			"get": map[string]any{
				"tags":       []string{"recipes"},
				"summary":    "レシピを取得する",
				"security":   secured,
				"parameters": idPathParam(),
				"responses": map[string]any{
					"200": jsonResponse("レシピ", "#/components/schemas/Recipe"),
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
			"put": map[string]any{
				"tags":        []string{"recipes"},
				"summary":     "レシピを更新する",
				"security":    secured,
				"parameters":  idPathParam(),
				"requestBody": jsonRequestBody("#/components/schemas/RecipeInput"),
				"responses": map[string]any{
					"200": jsonResponse("更新されたレシピ", "#/components/schemas/Recipe"),
					"400": jsonResponse("入力エラー", "#/components/schemas/Error"),
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
			"delete": map[string]any{
				"tags":       []string{"recipes"},
				"summary":    "レシピを削除する",
				"security":   secured,
				"parameters": idPathParam(),
				"responses": map[string]any{
					"204": map[string]any{"description": "削除完了"},
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
		},
		"/api/recipes/import": map[string]any{
			"post": map[string]any{
				"tags":        []string{"recipes"},
				"summary":     "外部URLからレシピを取り込む",
				"security":    secured,
				"requestBody": jsonRequestBody("#/components/schemas/ImportInput"),
				"responses": map[string]any{
					"201": jsonResponse("取り込まれたレシピ", "#/components/schemas/Recipe"),
					"400": jsonResponse("URL検証エラー", "#/components/schemas/Error"),
					"422": jsonResponse("取り込み失敗", "#/components/schemas/Error"),
					"429": jsonResponse("レート制限", "#/components/schemas/Error"),
				},
			},
		},
		"/api/ingredients": map[string]any{
			"get": map[string]any{
				"tags":     []string{"ingredients"},
				"summary":  "材料一覧を取得する",
				"security": secured,
				"parameters": []map[string]any{
					{"name": "recipeId", "in": "query", "schema": map[string]any{"type": "string"}},
				},
				"responses": map[string]any{
					"200": jsonResponseInline("材料一覧", map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "#/components/schemas/Ingredient"},
					}),
					"401": jsonResponse("未認証", "#/components/schemas/Error"),
				},
			},
			"post": map[string]any{
				"tags":        []string{"ingredients"},
				"summary":     "材料を作成する",
				"security":    secured,
				"requestBody": jsonRequestBody("#/components/schemas/IngredientInput"),
				"responses": map[string]any{
					"201": jsonResponse("作成された材料", "#/components/schemas/Ingredient"),
					"400": jsonResponse("入力エラー", "#/components/schemas/Error"),
					"404": jsonResponse("対象レシピ未検出", "#/components/schemas/Error"),
				},
			},
		},
		"/api/ingredients/{id}": map[string]any{
			"get": map[string]any{
				"tags":       []string{"ingredients"},
				"summary":    "材料を取得する",
				"security":   secured,
				"parameters": idPathParam(),
				"responses": map[string]any{
					"200": jsonResponse("材料", "#/components/schemas/Ingredient"),
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
			"put": map[string]any{
				"tags":        []string{"ingredients"},
				"summary":     "材料を更新する",
				"security":    secured,
				"parameters":  idPathParam(),
				"requestBody": jsonRequestBody("#/components/schemas/IngredientInput"),
				"responses": map[string]any{
					"200": jsonResponse("更新された材料", "#/components/schemas/Ingredient"),
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
			"delete": map[string]any{
				"tags":       []string{"ingredients"},
				"summary":    "材料を削除する",
				"security":   secured,
				"parameters": idPathParam(),
				"responses": map[string]any{
					"204": map[string]any{"description": "削除完了"},
					"404": jsonResponse("未検出", "#/components/schemas/Error"),
				},
			},
		},
	}
}

func idPathParam() []map[string]any {
	return []map[string]any{
		{
			"name":     "id",
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string", "format": "uuid"},
		},
	}
}

func jsonRequestBody(ref string) map[string]any {
	return map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": ref},
			},
		},
	}
}

func jsonResponse(description, ref string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": ref},
			},
		},
	}
}

func jsonResponseInline(description string, schema map[string]any) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": schema,
			},
		},
	}
}

func redirectResponse(description string) map[string]any {
	return map[string]any{
		"302": map[string]any{"description": description},
	}
}
