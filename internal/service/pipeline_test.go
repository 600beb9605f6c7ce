package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned responses in call order and records the prompts
// it saw.
type scriptedLLM struct {
	responses []string
	prompts   []string
	calls     int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.calls >= len(s.responses) {
		return "", assert.AnError
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

const (
	validFoodJSON = `{"is_food": true, "description": "a bowl of soup"}`
	recipeJSON    = `{"dish_name": "Tomato Soup", "ingredients": ["2 tomatoes", "1l water"], "recipe": "1. Boil."}`
	caloriesJSON  = `{"ingredients_calories": [{"ingredient": "tomatoes", "calories": 18}], "estimated_weight_g": 500, "total_calories_per_100g": 40, "total_calories": 200}`
	healthJSON    = `{"categories": ["Low-Calorie", "Protein-Max"], "vegan": true, "halal": true}`
	deliveryJSON  = `{"links": [{"ingredient": "tomatoes", "link": "https://google.com/search?q=tomatoes", "store": "Google"}]}`
)

func TestAnalyzeNotFood(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"is_food": false, "description": "a photo of a laptop"}`,
	}}
	p := NewPipelineService(llm)

	result, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	require.NoError(t, err)

	assert.False(t, result.IsFood)
	assert.Equal(t, "a photo of a laptop", result.Description)
	// No later stage runs after a rejection.
	assert.Equal(t, 1, llm.calls)
}

func TestAnalyzeFullRun(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		validFoodJSON, recipeJSON, caloriesJSON, healthJSON,
	}}
	p := NewPipelineService(llm)

	result, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	require.NoError(t, err)

	assert.True(t, result.IsFood)
	assert.Equal(t, "Tomato Soup", result.DishName)
	assert.Equal(t, []string{"2 tomatoes", "1l water"}, result.Ingredients)
	assert.Equal(t, 500, result.EstimatedWeightG)
	assert.Equal(t, 40, result.TotalCaloriesPer100g)
	assert.Equal(t, 200, result.TotalCalories)
	assert.True(t, result.Vegan)
	assert.True(t, result.Halal)
	// Category filtering happens on save, not here.
	assert.Equal(t, []string{"Low-Calorie", "Protein-Max"}, result.Categories)
	assert.Empty(t, result.Delivery)
	// Without a location there is no delivery call.
	assert.Equal(t, 4, llm.calls)
}

func TestAnalyzeWithLocation(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		validFoodJSON, recipeJSON, caloriesJSON, healthJSON, deliveryJSON,
	}}
	p := NewPipelineService(llm)

	result, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "Almaty, Kazakhstan")
	require.NoError(t, err)

	assert.Equal(t, 5, llm.calls)
	require.Len(t, result.Delivery, 1)
	assert.Equal(t, "tomatoes", result.Delivery[0].Ingredient)
	assert.True(t, strings.Contains(llm.prompts[4], "Kazakh"))
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"```json\n" + validFoodJSON + "\n```",
		"```\n" + recipeJSON + "\n```",
		caloriesJSON,
		healthJSON,
	}}
	p := NewPipelineService(llm)

	result, err := p.Analyze(context.Background(), []byte("img"), "image/png", "")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", result.DishName)
}

// Chatty responses wrapping the JSON object in prose still parse.
func TestAnalyzeExtractsJSONFromProse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"Here is the JSON you asked for: " + validFoodJSON + " Hope that helps!",
		recipeJSON,
		caloriesJSON,
		healthJSON,
	}}
	p := NewPipelineService(llm)

	result, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", result.DishName)
}

func TestAnalyzeInvalidStageJSON(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		validFoodJSON,
		"sorry, I cannot help with that",
	}}
	p := NewPipelineService(llm)

	_, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe stage")
}

func TestAnalyzeWithoutClient(t *testing.T) {
	p := NewPipelineService(nil)
	_, err := p.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, extractJSONObject(`Sure! {"a":1} Enjoy.`))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSONObject(`prefix {"a":{"b":2}} suffix`))
	assert.Equal(t, "no braces here", extractJSONObject("no braces here"))
	assert.Equal(t, "}{", extractJSONObject("}{"))
}

func TestDeliveryLanguage(t *testing.T) {
	assert.Equal(t, "Kazakh", deliveryLanguage("Astana, Kazakhstan"))
	assert.Equal(t, "Russian", deliveryLanguage("Moscow, Russia"))
	assert.Equal(t, "Russian", deliveryLanguage("Bishkek, Kyrgyzstan"))
	assert.Equal(t, "English", deliveryLanguage("Berlin, Germany"))
	assert.Equal(t, "English", deliveryLanguage(""))
}
