package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/catalog/catalogtest"
	"caseflow/internal/catalog/models"
)

func TestInMemoryStoreReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(models.Data{})

	d, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Providers)

	require.NoError(t, s.Replace(ctx, catalogtest.Data()))
	d, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, d.Offers, len(catalogtest.Data().Offers))
	assert.Equal(t, 2, s.Loads())
}
