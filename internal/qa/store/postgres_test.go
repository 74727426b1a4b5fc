package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestChunksSQLShape(t *testing.T) {
	for _, query := range []string{nearestChunksSQL, nearestChunksByDepartmentSQL} {
		assert.Contains(t, query, "WHERE is_active")
		assert.Contains(t, query, "ORDER BY embedding <=> $1, id")
		assert.Contains(t, query, "LIMIT $2")
	}
	assert.Contains(t, nearestChunksByDepartmentSQL, "department = $3")
	assert.NotContains(t, nearestChunksSQL, "department")
}

func TestNearestChunksSQLSelectsSourceColumns(t *testing.T) {
	assert.True(t, strings.HasPrefix(strings.TrimSpace(nearestChunksSQL), "SELECT id, title, section, content"))
}
