package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ecoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLegacy(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func TestConvertLegacy(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, map[string]string{
		"users.json": `{"alice": {"points": 105}}`,
		"rewards.json": `[
			{"id": "water-bottle", "name": "Reusable Water Bottle", "points_required": 100, "approved": true},
			null
		]`,
		"transactions.json": `[
			{"user": "alice", "category": "Recyclable (Plastic)", "confidence": 0.9, "points": 15, "timestamp": "2024-03-01T10:00:00.123456"},
			{"user": "alice", "type": "carbon_entry", "co2": 4.8, "points": 26, "timestamp": "2024-03-01T09:00:00"},
			{"user": "alice", "reward": "Reusable Water Bottle", "points_spent": 100, "status": "pending", "timestamp": "2024-03-02 08:00:00"},
			{"user": "bob", "category": "organic waste", "points": 5, "timestamp": "2024-03-02T08:00:00"}
		]`,
		"carbon_records.json": `[
			{"user": "alice", "date": "2024-03-01", "travel_mode": "Car", "km": 10, "electricity_kwh": 2, "lifestyle": 0.5, "co2_total": 4.8}
		]`,
		"badges.json": `{"alice": ["🌱 Beginner", "🔥 3-Day Green Streak", "Beginner"]}`,
	})

	data, err := ConvertLegacy(dir)
	require.NoError(t, err)

	require.Len(t, data.Rewards, 1)
	require.Contains(t, data.Users, "bob")
	assert.Equal(t, "bob", data.Users["bob"].Name)
	assert.Equal(t, 105, data.Users["alice"].Points)

	require.Len(t, data.Transactions, 4)
	waste := data.Transactions[0]
	assert.Equal(t, models.KindWasteClassification, waste.Kind)
	assert.Equal(t, CATEGORY_RECYCLABLE_PLASTIC, waste.Metadata.Category)
	assert.Equal(t, 15, waste.PointsDelta)
	assert.NotEmpty(t, waste.ID)

	carbon := data.Transactions[1]
	assert.Equal(t, models.KindCarbonEntry, carbon.Kind)
	assert.Equal(t, 26, carbon.PointsDelta)
	// clamped to the earlier entry
	assert.False(t, carbon.Timestamp.Before(waste.Timestamp))

	redemption := data.Transactions[2]
	assert.Equal(t, models.KindRewardRedemption, redemption.Kind)
	assert.Equal(t, models.StatusPending, redemption.Status)
	assert.Equal(t, -100, redemption.PointsDelta)
	assert.Equal(t, "water-bottle", redemption.Metadata.RewardID)
	assert.True(t, redemption.IsPendingRedemption())

	assert.Equal(t, CATEGORY_ORGANIC_WASTE, data.Transactions[3].Metadata.Category)

	require.Len(t, data.CarbonRecords, 1)
	assert.InDelta(t, 4.8, data.CarbonRecords[0].CO2, 1e-9)

	assert.Equal(t, []string{BADGE_BEGINNER, BADGE_STREAK_3}, data.Badges["alice"])
}

func TestConvertLegacyMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, map[string]string{"users.json": "null", "badges.json": ""})

	data, err := ConvertLegacy(dir)
	require.NoError(t, err)
	assert.Empty(t, data.Users)
	assert.Empty(t, data.Transactions)
	assert.Empty(t, data.CarbonRecords)
	assert.Len(t, data.Documents(), 5)
}

func TestConvertLegacyRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, map[string]string{
		"transactions.json": `[{"user": "alice", "points": 1, "timestamp": "yesterday"}]`,
	})
	_, err := ConvertLegacy(dir)
	assert.Error(t, err)

	writeLegacy(t, dir, map[string]string{
		"transactions.json": `[{"points": 1}]`,
	})
	_, err = ConvertLegacy(dir)
	assert.Error(t, err)
}

func TestImportedLegacyDataIsServed(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, map[string]string{
		"users.json":        `{"alice": {"points": 0}}`,
		"rewards.json":      `[{"id": "meal-voucher", "name": "Cafeteria Meal Voucher", "points_required": 200}]`,
		"transactions.json": `[{"user": "alice", "reward": "Cafeteria Meal Voucher", "points_spent": 200, "status": "pending", "timestamp": "2024-03-02T08:00:00"}]`,
	})

	data, err := ConvertLegacy(dir)
	require.NoError(t, err)

	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.store.Put(ctx, data.Documents()...))

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	pending, err := serviceRedemption.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = serviceRedemption.RejectRedemption(ctx, admin, pending[0].ID)
	require.NoError(t, err)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 200, balance)
	env.requireConserved(t)
}
