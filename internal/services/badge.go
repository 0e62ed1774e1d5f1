package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"

	"github.com/samber/do"
)

const (
	BADGE_BEGINNER          = "Beginner"
	BADGE_GREEN_CONTRIBUTOR = "Green Contributor"
	BADGE_ECO_CHAMPION      = "Eco Champion"
	BADGE_STREAK_3          = "3-Day Streak"
	BADGE_STREAK_7          = "7-Day Champion"
)

var BadgeCatalog = []models.Badge{
	{Name: BADGE_BEGINNER, Kind: models.BadgeKindPoints, Threshold: 100},
	{Name: BADGE_GREEN_CONTRIBUTOR, Kind: models.BadgeKindPoints, Threshold: 300},
	{Name: BADGE_ECO_CHAMPION, Kind: models.BadgeKindPoints, Threshold: 500},
	{Name: BADGE_STREAK_3, Kind: models.BadgeKindStreak, Threshold: 3},
	{Name: BADGE_STREAK_7, Kind: models.BadgeKindStreak, Threshold: 7},
}

// Streak counts consecutive days with at least one record for userID,
// walking back from today. No record today means 0.
func Streak(records []*models.CarbonRecord, userID string, today time.Time) int {
	days := map[string]bool{}
	for _, record := range records {
		if record.User == userID {
			days[record.Date] = true
		}
	}

	streak := 0
	for day := today; days[day.Format(models.DateLayout)]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// EarnedBadges lists the catalog badges whose threshold is met, in catalog order.
func EarnedBadges(points, streak int) []string {
	var earned []string
	for _, badge := range BadgeCatalog {
		value := points
		if badge.Kind == models.BadgeKindStreak {
			value = streak
		}
		if value >= badge.Threshold {
			earned = append(earned, badge.Name)
		}
	}
	return earned
}

// MergeBadges appends newly earned names to current. Nothing is ever removed.
func MergeBadges(current, earned []string) ([]string, bool) {
	have := make(map[string]bool, len(current))
	for _, name := range current {
		have[name] = true
	}

	merged := append([]string{}, current...)
	changed := false
	for _, name := range earned {
		if !have[name] {
			have[name] = true
			merged = append(merged, name)
			changed = true
		}
	}
	return merged, changed
}

var legacyBadgeNames = map[string]string{
	"3-day green streak": BADGE_STREAK_3,
	"7-day eco champion": BADGE_STREAK_7,
	"3-day streak":       BADGE_STREAK_3,
	"7-day champion":     BADGE_STREAK_7,
	"beginner":           BADGE_BEGINNER,
	"green contributor":  BADGE_GREEN_CONTRIBUTOR,
	"eco champion":       BADGE_ECO_CHAMPION,
}

// NormalizeBadgeName strips decorations such as a leading emoji and maps old
// badge names onto the catalog.
func NormalizeBadgeName(name string) string {
	trimmed := strings.TrimLeftFunc(name, func(r rune) bool {
		return r > 0x7f || r == ' '
	})
	if canonical, ok := legacyBadgeNames[strings.ToLower(strings.TrimSpace(trimmed))]; ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

func refreshBadges(tx *LedgerTx, userID string) error {
	points := 0
	if user, ok := tx.LookupUser(userID); ok {
		points = user.Points
	}

	records, err := tx.CarbonRecords()
	if err != nil {
		return err
	}

	badges, err := tx.Badges()
	if err != nil {
		return err
	}

	earned := EarnedBadges(points, Streak(records, userID, tx.Now()))
	merged, changed := MergeBadges(badges[userID], earned)
	if !changed {
		return nil
	}
	return tx.SetBadges(userID, merged)
}

type ServiceBadge struct {
	container *do.Injector
	store     datastore.Store
	ledger    *ServiceLedger
	clock     Clock
}

func NewServiceBadge(container *do.Injector) (*ServiceBadge, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBadge{container, store, ledger, invokeClock(container)}, nil
}

func (service *ServiceBadge) GetStreak(ctx context.Context, userID string) (int, error) {
	records, err := datastore.GetCarbonRecords(ctx, service.store)
	if err != nil {
		return 0, persistenceError(err)
	}
	return Streak(records, userID, service.clock()), nil
}

// GetBadges refreshes the user's badge set and returns it.
func (service *ServiceBadge) GetBadges(ctx context.Context, userID string) ([]string, error) {
	return service.Refresh(ctx, userID)
}

func (service *ServiceBadge) Refresh(ctx context.Context, userID string) ([]string, error) {
	var result []string
	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		if err := refreshBadges(tx, userID); err != nil {
			return err
		}
		badges, err := tx.Badges()
		if err != nil {
			return err
		}
		result = append([]string{}, badges[userID]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RebuildAll recomputes the badge cache for every known user and returns the
// number of users whose set grew.
func (service *ServiceBadge) RebuildAll(ctx context.Context) (int, error) {
	updated := 0
	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		badges, err := tx.Badges()
		if err != nil {
			return err
		}

		ids := map[string]bool{}
		for id := range tx.users {
			ids[id] = true
		}
		for id := range badges {
			ids[id] = true
		}

		sorted := make([]string, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		sort.Strings(sorted)

		for _, id := range sorted {
			before := len(badges[id])
			if err := refreshBadges(tx, id); err != nil {
				return err
			}
			if len(badges[id]) > before {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
