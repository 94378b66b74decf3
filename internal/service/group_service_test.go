package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_Create(t *testing.T) {
	db := newTestDB(t)
	svc := NewGroupService(db)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Test group", "test-slug", "Test description")
	require.NoError(t, err)
	assert.Equal(t, "Test group", g.String())

	_, err = svc.Create(ctx, "Again", "test-slug", "")
	assert.ErrorIs(t, err, ErrSlugTaken)

	_, err = svc.Create(ctx, "", "bad slug!", "")
	require.ErrorIs(t, err, ErrValidation)
	fields := FieldErrors(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "slug")

	_, err = svc.Create(ctx, "Alpha", "alpha", "")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Slug)
}
