package model

import "time"

// Recipe はレシピを表す。
// DescriptionとInstructionsは保存時にHTMLサニタイズ済みであることを前提とする。
type Recipe struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	Instructions    string
	Servings        int
	PrepTimeMinutes int
	CookTimeMinutes int
	SourceURL       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Ingredient はレシピに属する材料を表す。
type Ingredient struct {
	ID        string
	RecipeID  string
	UserID    string
	Name      string
	Quantity  float64
	Unit      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
