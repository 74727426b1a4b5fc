package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSimilarSQLShape(t *testing.T) {
	assert.Contains(t, findSimilarSQL, "1 - (embedding <=> ?) AS similarity")
	assert.Contains(t, findSimilarSQL, "WHERE is_active")
	assert.Contains(t, findSimilarSQL, "ORDER BY embedding <=> ?, id")
	assert.Contains(t, findSimilarSQL, "LIMIT ?")
}
