package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellarworks/cellar-service/internal/domain"
)

func TestPlanUpdateDoc_ExcludesImmutableID(t *testing.T) {
	plan := domain.NewReorgPlan("plan-123", &domain.SortPlan{Moves: []domain.Move{}}, 0)

	doc, err := planUpdateDoc(plan)
	require.NoError(t, err)

	assert.NotContains(t, doc, "_id")
	assert.Equal(t, "plan-123", doc["planId"])
	assert.Equal(t, "draft", doc["status"])
}
