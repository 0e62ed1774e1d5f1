package services

import (
	"context"
	"testing"

	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClassifier struct {
	result Classification
}

func (c fixedClassifier) Classify() Classification {
	return c.result
}

type denyLimiter struct {
	keys []string
}

func (l *denyLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	l.keys = append(l.keys, key)
	return limiter.ErrRateLimited
}

func TestRecordWasteClassificationWithLabel(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceActivity := invoke[*ServiceActivity](t, env)

	confidence := 0.91
	transaction, err := serviceActivity.RecordWasteClassification(ctx, alice, "Recyclable (Plastic)", &confidence)
	require.NoError(t, err)

	assert.Equal(t, models.KindWasteClassification, transaction.Kind)
	assert.Equal(t, 15, transaction.PointsDelta)
	assert.Equal(t, CATEGORY_RECYCLABLE_PLASTIC, transaction.Metadata.Category)
	require.NotNil(t, transaction.Metadata.Confidence)
	assert.InDelta(t, 0.91, *transaction.Metadata.Confidence, 1e-9)

	unknown, err := serviceActivity.RecordWasteClassification(ctx, alice, "Glass", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, unknown.PointsDelta)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 15, balance)
	env.requireConserved(t)
}

func TestRecordWasteClassificationUsesClassifier(t *testing.T) {
	env := newTestEnv(t, nil)
	do.ProvideValue[Classifier](env.injector, fixedClassifier{Classification{Category: CATEGORY_E_WASTE, Confidence: 0.8}})
	ctx := context.Background()

	transaction, err := invoke[*ServiceActivity](t, env).RecordWasteClassification(ctx, alice, "", nil)
	require.NoError(t, err)
	assert.Equal(t, CATEGORY_E_WASTE, transaction.Metadata.Category)
	assert.Equal(t, 25, transaction.PointsDelta)
	require.NotNil(t, transaction.Metadata.Confidence)
	assert.InDelta(t, 0.8, *transaction.Metadata.Confidence, 1e-9)
}

func TestRecordWasteClassificationRateLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	deny := &denyLimiter{}
	do.ProvideValue[interfaces.Limiter](env.injector, deny)
	ctx := context.Background()

	_, err := invoke[*ServiceActivity](t, env).RecordWasteClassification(ctx, alice, CATEGORY_E_WASTE, nil)
	assert.ErrorIs(t, err, limiter.ErrRateLimited)
	assert.Equal(t, []string{LimitKeyClassify("alice")}, deny.keys)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestRecordWasteClassificationNeedsUser(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := invoke[*ServiceActivity](t, env).RecordWasteClassification(context.Background(), models.Identity{}, CATEGORY_E_WASTE, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordCarbonActivity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceActivity := invoke[*ServiceActivity](t, env)

	result, err := serviceActivity.RecordCarbonActivity(ctx, alice, models.CarbonActivity{
		TravelMode:     models.TravelModeCar,
		Km:             10,
		ElectricityKwh: 2,
		Lifestyle:      0.5,
	})
	require.NoError(t, err)

	assert.InDelta(t, 4.8, result.Record.CO2, 1e-9)
	assert.Equal(t, "2024-03-10", result.Record.Date)
	assert.Equal(t, 26, result.Transaction.PointsDelta)
	assert.Equal(t, models.KindCarbonEntry, result.Transaction.Kind)
	require.NotNil(t, result.Transaction.Metadata.CO2)
	assert.InDelta(t, 4.8, *result.Transaction.Metadata.CO2, 1e-9)
	assert.Len(t, result.Equivalencies, 2)

	history, err := serviceActivity.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TravelModeCar, history[0].TravelMode)
	env.requireConserved(t)
}

func TestRecordCarbonActivityInvalidWritesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceActivity := invoke[*ServiceActivity](t, env)

	_, err := serviceActivity.RecordCarbonActivity(ctx, alice, models.CarbonActivity{TravelMode: "Rocket", Km: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	history, err := serviceActivity.History(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history)

	transactions, err := invoke[*ServiceLedger](t, env).Transactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestRecordCarbonActivityHugeFootprintEarnsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceActivity := invoke[*ServiceActivity](t, env)

	result, err := serviceActivity.RecordCarbonActivity(ctx, alice, models.CarbonActivity{TravelMode: models.TravelModeCar, Km: 1e17})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Transaction.PointsDelta)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = serviceActivity.RecordCarbonActivity(ctx, alice, models.CarbonActivity{
		TravelMode:     models.TravelModeCar,
		Km:             1.7e308,
		ElectricityKwh: 1.7e308,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	env.requireConserved(t)
}

func TestRecentCO2(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	serviceActivity := invoke[*ServiceActivity](t, env)

	for _, km := range []float64{10, 20, 30, 40} {
		_, err := serviceActivity.RecordCarbonActivity(ctx, alice, models.CarbonActivity{TravelMode: models.TravelModeBus, Km: km})
		require.NoError(t, err)
	}
	_, err := serviceActivity.RecordCarbonActivity(ctx, bob, models.CarbonActivity{TravelMode: models.TravelModeCar, Km: 100})
	require.NoError(t, err)

	recent, err := serviceActivity.RecentCO2(ctx, "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, recent)

	all, err := serviceActivity.RecentCO2(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
