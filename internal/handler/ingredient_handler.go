package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipeman/internal/ingredient"
	"github.com/hitoshi/recipeman/internal/middleware"
	"github.com/hitoshi/recipeman/internal/model"
)

// IngredientServiceInterface は材料ハンドラーが必要とするサービスインターフェース。
type IngredientServiceInterface interface {
	List(ctx context.Context, userID, recipeID string) ([]*model.Ingredient, error)
	Get(ctx context.Context, userID, ingredientID string) (*model.Ingredient, error)
	Create(ctx context.Context, userID string, input ingredient.IngredientInput) (*model.Ingredient, error)
	Update(ctx context.Context, userID, ingredientID string, input ingredient.IngredientInput) (*model.Ingredient, error)
	Delete(ctx context.Context, userID, ingredientID string) error
}

// IngredientHandler は材料管理のHTTPハンドラー。
type IngredientHandler struct {
	service IngredientServiceInterface
}

// NewIngredientHandler はIngredientHandlerを生成する。
func NewIngredientHandler(service IngredientServiceInterface) *IngredientHandler {
	return &IngredientHandler{service: service}
}

// ingredientResponse は材料のAPIレスポンス。
type ingredientResponse struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipeId"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List は材料一覧を返す。recipeIdクエリパラメータでレシピ単位に絞り込める。
// GET /api/ingredients?recipeId=xxx
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	ingredients, err := h.service.List(r.Context(), userID, r.URL.Query().Get("recipeId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		responses[i] = toIngredientResponse(ing)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Get は材料詳細を返す。
// GET /api/ingredients/{id}
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	ing, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIngredientResponse(ing))
}

// Create は材料を作成する。
// POST /api/ingredients
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	var input ingredient.IngredientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	ing, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toIngredientResponse(ing))
}

// Update は材料を更新する。
// PUT /api/ingredients/{id}
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	var input ingredient.IngredientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	ing, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIngredientResponse(ing))
}

// Delete は材料を削除する。
// DELETE /api/ingredients/{id}
func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toIngredientResponse はドメインのIngredientをAPIレスポンス型に変換する。
func toIngredientResponse(ing *model.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:        ing.ID,
		RecipeID:  ing.RecipeID,
		Name:      ing.Name,
		Quantity:  ing.Quantity,
		Unit:      ing.Unit,
		CreatedAt: ing.CreatedAt,
		UpdatedAt: ing.UpdatedAt,
	}
}
