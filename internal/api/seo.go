package api

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/service"
)

// sitemapLimit caps the sitemap at the newest published recipes.
const sitemapLimit = 100

// SEOHandler serves the crawler-facing surface: sitemap, robots exclusions
// and schema.org structured data for recipe pages.
type SEOHandler struct {
	recipes *service.RecipeService
	baseURL string
}

// NewSEOHandler creates a new SEOHandler instance. baseURL is the public site
// origin without a trailing slash.
func NewSEOHandler(recipes *service.RecipeService, baseURL string) *SEOHandler {
	return &SEOHandler{recipes: recipes, baseURL: baseURL}
}

// RegisterRoutes mounts sitemap and robots at the root and the structured
// data route under the API group.
func (h *SEOHandler) RegisterRoutes(router *gin.Engine, v1 *gin.RouterGroup) {
	router.GET("/sitemap.xml", h.Sitemap)
	router.GET("/robots.txt", h.Robots)
	v1.GET("/recipes/:slug/jsonld", h.RecipeJSONLD)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (h *SEOHandler) Sitemap(c *gin.Context) {
	slugs, err := h.recipes.PublishedSlugs(c.Request.Context(), sitemapLimit)
	if err != nil {
		log.Printf("[SEOHandler] sitemap failed: %v", err)
		c.String(http.StatusInternalServerError, "sitemap unavailable")
		return
	}

	set := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: h.baseURL + "/", ChangeFreq: "daily", Priority: "1.0"},
		},
	}
	for _, slug := range slugs {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/recipes/%s", h.baseURL, slug),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, "sitemap unavailable")
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func (h *SEOHandler) Robots(c *gin.Context) {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", h.baseURL)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// RecipeJSONLD renders a published recipe as a schema.org Recipe object for
// embedding in the page head.
func (h *SEOHandler) RecipeJSONLD(c *gin.Context) {
	recipe, err := h.recipes.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		log.Printf("[SEOHandler] structured data failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}

	ingredients := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ingredients = append(ingredients, ing.Ingredient)
	}

	doc := gin.H{
		"@context":         "https://schema.org",
		"@type":            "Recipe",
		"name":             recipe.DishName,
		"url":              fmt.Sprintf("%s/recipes/%s", h.baseURL, recipe.Slug),
		"author":           gin.H{"@type": "Person", "name": recipe.UserName},
		"datePublished":    recipe.CreatedAt.Format("2006-01-02"),
		"recipeIngredient": ingredients,
		"recipeInstructions": gin.H{
			"@type": "HowToStep",
			"text":  recipe.Recipe,
		},
		"nutrition": gin.H{
			"@type":       "NutritionInformation",
			"calories":    fmt.Sprintf("%d calories", recipe.TotalCaloriesPer100g),
			"servingSize": "100 g",
		},
		"keywords": recipe.Categories,
	}
	if recipe.ImagePath != "" {
		doc["image"] = recipe.ImagePath
	}
	if recipe.IsVegan {
		doc["suitableForDiet"] = "https://schema.org/VeganDiet"
	}

	c.JSON(http.StatusOK, doc)
}
