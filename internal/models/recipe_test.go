package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHealthCategory(t *testing.T) {
	for _, name := range HealthCategories {
		assert.True(t, IsHealthCategory(name), name)
	}

	assert.False(t, IsHealthCategory("Protein-Max"))
	assert.False(t, IsHealthCategory("keto"))
	assert.False(t, IsHealthCategory(""))
}

func TestHealthCategoryCount(t *testing.T) {
	assert.Len(t, HealthCategories, 10)
}
