package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
)

type ServiceActivity struct {
	container  *do.Injector
	store      datastore.Store
	ledger     *ServiceLedger
	limiter    interfaces.Limiter
	classifier Classifier
	config     *ServiceConfig
}

func NewServiceActivity(container *do.Injector) (*ServiceActivity, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	var l interfaces.Limiter = limiter.Unlimited{}
	if provided, err := do.Invoke[interfaces.Limiter](container); err == nil {
		l = provided
	}

	classifier, err := do.Invoke[Classifier](container)
	if err != nil {
		classifier, err = NewSimulatedClassifier(rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			return nil, err
		}
	}

	return &ServiceActivity{container, store, ledger, l, classifier, config}, nil
}

// RecordWasteClassification credits the points for a classified waste item.
// An empty category is classified by the configured classifier.
func (service *ServiceActivity) RecordWasteClassification(ctx context.Context, identity models.Identity, category string, confidence *float64) (*models.Transaction, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	rate := service.config.GetIntConfig(CONFIG_CLASSIFY_RATE_LIMIT, CLASSIFY_DEFAULT_RATE_LIMIT)
	if err := service.limiter.Allow(ctx, LimitKeyClassify(identity.UserID), redis_rate.PerMinute(rate)); err != nil {
		return nil, err
	}

	if category == "" {
		result := service.classifier.Classify()
		category = result.Category
		confidence = &result.Confidence
	}
	category = NormalizeCategory(category)

	return service.ledger.Credit(ctx, identity.UserID, PointsForCategory(category), models.Transaction{
		Kind: models.KindWasteClassification,
		Metadata: models.TransactionMetadata{
			Category:   category,
			Confidence: confidence,
		},
	})
}

// RecordCarbonActivity stores the day's carbon record and credits its points
// in the same commit.
func (service *ServiceActivity) RecordCarbonActivity(ctx context.Context, identity models.Identity, activity models.CarbonActivity) (*models.CarbonEntryResult, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	co2, err := ComputeDailyFootprint(activity.TravelMode, activity.Km, activity.ElectricityKwh, activity.Lifestyle)
	if err != nil {
		return nil, err
	}

	result := &models.CarbonEntryResult{Equivalencies: Equivalencies(co2)}
	err = service.ledger.Update(ctx, func(tx *LedgerTx) error {
		record := &models.CarbonRecord{
			User:           identity.UserID,
			Date:           tx.Now().Format(models.DateLayout),
			Timestamp:      tx.Now(),
			TravelMode:     activity.TravelMode,
			Km:             activity.Km,
			ElectricityKwh: activity.ElectricityKwh,
			Lifestyle:      activity.Lifestyle,
			CO2:            co2,
		}
		if err := tx.AppendCarbonRecord(record); err != nil {
			return err
		}

		t, err := tx.Credit(identity.UserID, PointsForFootprint(co2), models.Transaction{
			Kind:     models.KindCarbonEntry,
			Metadata: models.TransactionMetadata{CO2: &co2},
		})
		if err != nil {
			return err
		}

		result.Record = record
		result.Transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// History returns the user's carbon records in the order they were logged.
func (service *ServiceActivity) History(ctx context.Context, userID string) ([]*models.CarbonRecord, error) {
	records, err := datastore.GetCarbonRecords(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	history := []*models.CarbonRecord{}
	for _, record := range records {
		if record.User == userID {
			history = append(history, record)
		}
	}
	return history, nil
}

// RecentCO2 returns up to n of the user's latest footprints, oldest first.
func (service *ServiceActivity) RecentCO2(ctx context.Context, userID string, n int) ([]float64, error) {
	history, err := service.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	values := make([]float64, 0, len(history))
	for _, record := range history {
		values = append(values, record.CO2)
	}
	return values, nil
}
