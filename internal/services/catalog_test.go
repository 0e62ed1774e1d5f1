package services

import (
	"context"
	"testing"

	"ecoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSeedOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceCatalog := invoke[*ServiceCatalog](t, env)

	rewards, err := serviceCatalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rewards)

	written, err := serviceCatalog.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRewards), written)

	written, err = serviceCatalog.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	rewards, err = serviceCatalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rewards, len(DefaultRewards))
}

func TestCatalogUpsertAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	serviceCatalog := invoke[*ServiceCatalog](t, env)

	// warm the cache so the writes below must invalidate it
	_, err := serviceCatalog.List(ctx)
	require.NoError(t, err)

	_, err = serviceCatalog.Upsert(ctx, admin, models.Reward{ID: " bus-pass ", Name: "Bus Pass", Type: "voucher", PointsRequired: 250})
	require.NoError(t, err)

	reward, err := serviceCatalog.Get(ctx, "bus-pass")
	require.NoError(t, err)
	assert.Equal(t, 250, reward.PointsRequired)

	_, err = serviceCatalog.Upsert(ctx, admin, models.Reward{ID: "bus-pass", Name: "Bus Pass", PointsRequired: 180, Approved: true})
	require.NoError(t, err)

	rewards, err := serviceCatalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rewards, len(DefaultRewards)+1)

	reward, err = serviceCatalog.Get(ctx, "bus-pass")
	require.NoError(t, err)
	assert.Equal(t, 180, reward.PointsRequired)
	assert.True(t, reward.Approved)

	require.NoError(t, serviceCatalog.Delete(ctx, admin, "bus-pass"))
	_, err = serviceCatalog.Get(ctx, "bus-pass")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.ErrorIs(t, serviceCatalog.Delete(ctx, admin, "bus-pass"), ErrRecordNotFound)
}

func TestCatalogValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceCatalog := invoke[*ServiceCatalog](t, env)

	_, err := serviceCatalog.Upsert(ctx, alice, models.Reward{ID: "x", Name: "X", PointsRequired: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = serviceCatalog.Upsert(ctx, admin, models.Reward{ID: "", Name: "X", PointsRequired: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = serviceCatalog.Upsert(ctx, admin, models.Reward{ID: "x", Name: "X", PointsRequired: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, serviceCatalog.Delete(ctx, bob, "x"), ErrForbidden)
}
