package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/foodsnap-ai/backend/internal/models"
)

// Stage prompts. Each stage receives the prior stage's JSON embedded in its
// prompt and must answer with JSON only.

const validityPrompt = `You are an assistant that determines whether the given image contains food.

You will receive an image. Accept prepared dishes, raw ingredients and packaged goods.
Reject people, animals, non-food objects and empty or ambiguous scenes.

Respond with:
{
  "is_food": true or false,
  "description": "short description of what is in the image"
}

Only return JSON - no extra text.`

const recipePrompt = `You are an agent analyzing food photos.
You will receive an image file. Visually analyze the image and return:
1. Name of the dish.
2. List of ingredients with measurements.
3. Numbered step-by-step recipe.
For packaged or processed foods, reverse-engineer a from-scratch recipe.
Never give purchase instructions.
Output must be a JSON like:
{
  "dish_name": "string",
  "ingredients": ["string", ...],
  "recipe": "string"
}
Make the recipe clear and repeatable.`

const caloriePrompt = `You are a nutrition expert. Given the following recipe JSON, estimate:
1. Calories per 100g for every ingredient.
2. Total dish weight in grams.
3. Overall calories per 100g of the finished dish.
Adjust the estimates for the cooking method (for example, raise them for fried preparation).

Recipe:
%s

Respond only with JSON like:
{
  "ingredients_calories": [{"ingredient": "string", "calories": 0}, ...],
  "estimated_weight_g": 0,
  "total_calories_per_100g": 0,
  "total_calories": 0
}`

const healthPrompt = `You are a dietary classifier. Given the recipe and calorie JSON below, assign
zero or more categories strictly from this list:
%s
Also decide whether the dish is vegan and whether it is halal.

Recipe:
%s

Calories:
%s

Respond only with JSON like:
{
  "categories": ["string", ...],
  "vegan": false,
  "halal": false
}`

const deliveryPrompt = `You are a shopping assistant. For each ingredient of the recipe below, produce
one web-search link for buying it, written in %s. Use plain search-engine URLs
with the query percent-encoded.

Recipe:
%s

Respond only with JSON like:
{
  "links": [{"ingredient": "string", "link": "https://...", "store": "string"}, ...]
}`

// ValidityResult is the first stage's decision on the image.
type ValidityResult struct {
	IsFood      bool   `json:"is_food"`
	Description string `json:"description"`
}

// RecipeStageResult is the inferred dish with its preparation steps.
type RecipeStageResult struct {
	DishName    string   `json:"dish_name"`
	Ingredients []string `json:"ingredients"`
	Recipe      string   `json:"recipe"`
}

// CalorieStageResult is the per-ingredient and whole-dish calorie estimate.
type CalorieStageResult struct {
	IngredientsCalories  []IngredientCaloriesResponse `json:"ingredients_calories"`
	EstimatedWeightG     int                          `json:"estimated_weight_g"`
	TotalCaloriesPer100g int                          `json:"total_calories_per_100g"`
	TotalCalories        int                          `json:"total_calories"`
}

// HealthStageResult carries the health tags plus the dietary booleans.
type HealthStageResult struct {
	Categories []string `json:"categories"`
	Vegan      bool     `json:"vegan"`
	Halal      bool     `json:"halal"`
}

// DeliveryLink is one sourcing link for an ingredient.
type DeliveryLink struct {
	Ingredient string `json:"ingredient"`
	Link       string `json:"link"`
	Store      string `json:"store"`
}

type deliveryStageResult struct {
	Links []DeliveryLink `json:"links"`
}

// AnalysisResult is the final stage's assembly of every prior stage output.
// When IsFood is false only Description is populated.
type AnalysisResult struct {
	IsFood               bool                         `json:"is_food"`
	Description          string                       `json:"description,omitempty"`
	DishName             string                       `json:"dish_name,omitempty"`
	Ingredients          []string                     `json:"ingredients,omitempty"`
	Recipe               string                       `json:"recipe,omitempty"`
	IngredientsCalories  []IngredientCaloriesResponse `json:"ingredients_calories,omitempty"`
	EstimatedWeightG     int                          `json:"estimated_weight_g,omitempty"`
	TotalCaloriesPer100g int                          `json:"total_calories_per_100g,omitempty"`
	TotalCalories        int                          `json:"total_calories,omitempty"`
	Categories           []string                     `json:"categories,omitempty"`
	Vegan                bool                         `json:"vegan"`
	Halal                bool                         `json:"halal"`
	Delivery             []DeliveryLink               `json:"delivery"`
}

// PipelineService sequences the image-analysis stages. Each stage is one
// awaited model call consuming the prior stage's structured output; the
// validity stage short-circuits the whole chain on rejection.
type PipelineService struct {
	llm LLMClient
}

// NewPipelineService creates a new PipelineService instance
func NewPipelineService(llm LLMClient) *PipelineService {
	return &PipelineService{llm: llm}
}

// Analyze runs the full stage chain over one image. Session state is scoped
// to the generated session id and discarded when the request ends.
func (s *PipelineService) Analyze(ctx context.Context, image []byte, mimeType, location string) (*AnalysisResult, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("analysis is not configured")
	}

	sessionID := uuid.New().String()
	log.Printf("[PipelineService] session %s: starting analysis", sessionID)

	// Stage 1: validity
	raw, err := s.llm.Generate(ctx, validityPrompt, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("validity stage failed: %w", err)
	}
	var validity ValidityResult
	if err := decodeStage(raw, &validity); err != nil {
		return nil, fmt.Errorf("validity stage returned invalid JSON: %w", err)
	}
	if !validity.IsFood {
		log.Printf("[PipelineService] session %s: rejected (%s)", sessionID, validity.Description)
		return &AnalysisResult{IsFood: false, Description: validity.Description}, nil
	}

	// Stage 2: recipe extraction
	raw, err = s.llm.Generate(ctx, recipePrompt, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("recipe stage failed: %w", err)
	}
	var recipe RecipeStageResult
	if err := decodeStage(raw, &recipe); err != nil {
		return nil, fmt.Errorf("recipe stage returned invalid JSON: %w", err)
	}
	recipeJSON, _ := json.Marshal(recipe)

	// Stage 3: calorie estimation
	raw, err = s.llm.Generate(ctx, fmt.Sprintf(caloriePrompt, recipeJSON), nil, "")
	if err != nil {
		return nil, fmt.Errorf("calorie stage failed: %w", err)
	}
	var calories CalorieStageResult
	if err := decodeStage(raw, &calories); err != nil {
		return nil, fmt.Errorf("calorie stage returned invalid JSON: %w", err)
	}
	caloriesJSON, _ := json.Marshal(calories)

	// Stage 4: health categorization
	vocabulary := strings.Join(models.HealthCategories, ", ")
	raw, err = s.llm.Generate(ctx, fmt.Sprintf(healthPrompt, vocabulary, recipeJSON, caloriesJSON), nil, "")
	if err != nil {
		return nil, fmt.Errorf("health stage failed: %w", err)
	}
	var health HealthStageResult
	if err := decodeStage(raw, &health); err != nil {
		return nil, fmt.Errorf("health stage returned invalid JSON: %w", err)
	}

	// Stage 5: delivery links, only when a location accompanied the request
	delivery := []DeliveryLink{}
	if location != "" {
		language := deliveryLanguage(location)
		raw, err = s.llm.Generate(ctx, fmt.Sprintf(deliveryPrompt, language, recipeJSON), nil, "")
		if err != nil {
			return nil, fmt.Errorf("delivery stage failed: %w", err)
		}
		var links deliveryStageResult
		if err := decodeStage(raw, &links); err != nil {
			return nil, fmt.Errorf("delivery stage returned invalid JSON: %w", err)
		}
		delivery = links.Links
	}

	// Stage 6: assembly only, no model call
	log.Printf("[PipelineService] session %s: analysis complete (%s)", sessionID, recipe.DishName)
	return &AnalysisResult{
		IsFood:               true,
		DishName:             recipe.DishName,
		Ingredients:          recipe.Ingredients,
		Recipe:               recipe.Recipe,
		IngredientsCalories:  calories.IngredientsCalories,
		EstimatedWeightG:     calories.EstimatedWeightG,
		TotalCaloriesPer100g: calories.TotalCaloriesPer100g,
		TotalCalories:        calories.TotalCalories,
		Categories:           health.Categories,
		Vegan:                health.Vegan,
		Halal:                health.Halal,
		Delivery:             delivery,
	}, nil
}

var codeFenceRe = regexp.MustCompile("(?m)^```(?:json)?\\s*|\\s*```$")

// StripCodeFence removes optional markdown code-fence markup around a model
// response so the JSON body can be parsed.
func StripCodeFence(s string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// decodeStage parses one stage's free-form response text as JSON: strip any
// code fences, locate the JSON object inside surrounding prose, parse once. A
// parse failure fails the pipeline for this request; there is no retry.
func decodeStage(raw string, v interface{}) error {
	return json.Unmarshal([]byte(extractJSONObject(StripCodeFence(raw))), v)
}

// extractJSONObject slices the text from the first '{' to the last '}' so
// chatty responses like "Here is the JSON: {...}" still parse. Text without a
// brace pair passes through unchanged.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// russianSpeaking lists the regions whose sourcing links are generated in
// Russian; Kazakhstan gets Kazakh, everywhere else English.
var russianSpeaking = []string{"russia", "belarus", "kyrgyzstan", "uzbekistan"}

func deliveryLanguage(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if strings.Contains(loc, "kazakhstan") {
		return "Kazakh"
	}
	for _, region := range russianSpeaking {
		if strings.Contains(loc, region) {
			return "Russian"
		}
	}
	return "English"
}
