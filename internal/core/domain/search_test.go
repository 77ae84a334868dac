package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSortResultsByScore tests descending order
func TestSortResultsByScore(t *testing.T) {
	results := []SearchResult{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.9},
		{ID: "c", Score: 0.7},
	}

	SortResultsByScore(results)

	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Equal(t, "b", results[2].ID)
}

// TestSortResultsByScore_StableTies tests that equal scores keep discovery order
func TestSortResultsByScore_StableTies(t *testing.T) {
	results := []SearchResult{
		{ID: "first", Score: 0.8},
		{ID: "second", Score: 0.8},
		{ID: "third", Score: 0.8},
	}

	SortResultsByScore(results)

	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

// TestSortResultsByScore_Empty tests that empty and nil slices are fine
func TestSortResultsByScore_Empty(t *testing.T) {
	SortResultsByScore(nil)
	SortResultsByScore([]SearchResult{})
}
