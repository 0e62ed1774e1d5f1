package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"

	"github.com/google/uuid"
)

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	models.DateLayout,
}

type legacyTransaction struct {
	ID          string                      `json:"id"`
	User        string                      `json:"user"`
	Type        string                      `json:"type"`
	Kind        string                      `json:"kind"`
	Category    string                      `json:"category"`
	Confidence  *float64                    `json:"confidence"`
	CO2         *float64                    `json:"co2"`
	Points      *int                        `json:"points"`
	PointsDelta *int                        `json:"points_delta"`
	Reward      string                      `json:"reward"`
	PointsSpent *int                        `json:"points_spent"`
	Status      string                      `json:"status"`
	Timestamp   string                      `json:"timestamp"`
	Metadata    *models.TransactionMetadata `json:"metadata"`
}

type legacyCarbonRecord struct {
	User           string   `json:"user"`
	Date           string   `json:"date"`
	Timestamp      string   `json:"timestamp"`
	TravelMode     string   `json:"travel_mode"`
	Km             float64  `json:"km"`
	ElectricityKwh float64  `json:"electricity_kwh"`
	Lifestyle      float64  `json:"lifestyle"`
	CO2            *float64 `json:"co2"`
	CO2Total       *float64 `json:"co2_total"`
}

// LegacyData is a data directory of the legacy JSON application converted to
// the current document shapes.
type LegacyData struct {
	Users         map[string]*models.User
	Transactions  []*models.Transaction
	CarbonRecords []*models.CarbonRecord
	Rewards       []*models.Reward
	Badges        models.Badges
}

func (data *LegacyData) Documents() []datastore.Document {
	return []datastore.Document{
		{Collection: datastore.CollectionUsers, Value: data.Users},
		{Collection: datastore.CollectionTransactions, Value: data.Transactions},
		{Collection: datastore.CollectionCarbonRecords, Value: data.CarbonRecords},
		{Collection: datastore.CollectionRewards, Value: data.Rewards},
		{Collection: datastore.CollectionBadges, Value: data.Badges},
	}
}

// ConvertLegacy reads users.json, transactions.json, carbon_records.json,
// rewards.json and badges.json from dir. Missing files are treated as empty.
func ConvertLegacy(dir string) (*LegacyData, error) {
	data := &LegacyData{
		Users:         map[string]*models.User{},
		Transactions:  []*models.Transaction{},
		CarbonRecords: []*models.CarbonRecord{},
		Rewards:       []*models.Reward{},
		Badges:        models.Badges{},
	}

	if err := readLegacy(dir, "users.json", &data.Users); err != nil {
		return nil, err
	}
	if data.Users == nil {
		data.Users = map[string]*models.User{}
	}
	for id, user := range data.Users {
		if user == nil {
			user = &models.User{}
			data.Users[id] = user
		}
		user.ID = id
		if user.Name == "" {
			user.Name = id
		}
	}

	if err := readLegacy(dir, "rewards.json", &data.Rewards); err != nil {
		return nil, err
	}
	rewards := data.Rewards[:0]
	rewardsByName := map[string]*models.Reward{}
	for _, reward := range data.Rewards {
		if reward == nil {
			continue
		}
		rewards = append(rewards, reward)
		rewardsByName[reward.Name] = reward
	}
	data.Rewards = rewards

	var records []legacyCarbonRecord
	if err := readLegacy(dir, "carbon_records.json", &records); err != nil {
		return nil, err
	}
	for i, r := range records {
		record, err := convertCarbonRecord(r)
		if err != nil {
			return nil, fmt.Errorf("carbon_records.json[%d]: %w", i, err)
		}
		data.CarbonRecords = append(data.CarbonRecords, record)
	}

	var transactions []legacyTransaction
	if err := readLegacy(dir, "transactions.json", &transactions); err != nil {
		return nil, err
	}
	last := map[string]time.Time{}
	for i, row := range transactions {
		t, err := convertTransaction(row, rewardsByName)
		if err != nil {
			return nil, fmt.Errorf("transactions.json[%d]: %w", i, err)
		}
		if prev, ok := last[t.User]; ok && prev.After(t.Timestamp) {
			t.Timestamp = prev
		}
		last[t.User] = t.Timestamp
		data.Transactions = append(data.Transactions, t)

		if _, ok := data.Users[t.User]; !ok {
			data.Users[t.User] = &models.User{ID: t.User, Name: t.User}
		}
	}

	var badges map[string][]string
	if err := readLegacy(dir, "badges.json", &badges); err != nil {
		return nil, err
	}
	for user, names := range badges {
		normalized := make([]string, 0, len(names))
		for _, name := range names {
			normalized = append(normalized, NormalizeBadgeName(name))
		}
		data.Badges[user], _ = MergeBadges(nil, normalized)
	}

	return data, nil
}

func convertTransaction(row legacyTransaction, rewardsByName map[string]*models.Reward) (*models.Transaction, error) {
	if row.User == "" {
		return nil, errors.New("missing user")
	}

	timestamp, err := parseLegacyTime(row.Timestamp)
	if err != nil {
		return nil, err
	}

	t := &models.Transaction{
		ID:        row.ID,
		User:      row.User,
		Status:    models.TransactionStatus(row.Status),
		Timestamp: timestamp,
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.StatusApproved
	}
	if row.Metadata != nil {
		t.Metadata = *row.Metadata
	}

	switch {
	case row.Kind != "":
		t.Kind = models.TransactionKind(row.Kind)
		if row.PointsDelta != nil {
			t.PointsDelta = *row.PointsDelta
		}
	case row.Reward != "" || row.PointsSpent != nil:
		t.Kind = models.KindRewardRedemption
		spent := 0
		if row.PointsSpent != nil {
			spent = *row.PointsSpent
		}
		t.PointsDelta = -spent
		t.Metadata.RewardName = row.Reward
		t.Metadata.PointsSpent = spent
		if reward, ok := rewardsByName[row.Reward]; ok {
			t.Metadata.RewardID = reward.ID
		}
	case row.Type == string(models.KindCarbonEntry):
		t.Kind = models.KindCarbonEntry
		t.Metadata.CO2 = row.CO2
		if row.Points != nil {
			t.PointsDelta = *row.Points
		}
	default:
		t.Kind = models.KindWasteClassification
		t.Metadata.Category = NormalizeCategory(row.Category)
		t.Metadata.Confidence = row.Confidence
		if row.Points != nil {
			t.PointsDelta = *row.Points
		}
	}

	return t, nil
}

func convertCarbonRecord(r legacyCarbonRecord) (*models.CarbonRecord, error) {
	if r.User == "" {
		return nil, errors.New("missing user")
	}

	timestamp, err := parseLegacyTime(r.Timestamp)
	if err != nil {
		return nil, err
	}

	date := r.Date
	if date == "" {
		date = timestamp.Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q", r.Date)
	}

	co2 := 0.0
	switch {
	case r.CO2 != nil:
		co2 = *r.CO2
	case r.CO2Total != nil:
		co2 = *r.CO2Total
	}

	return &models.CarbonRecord{
		User:           r.User,
		Date:           date,
		Timestamp:      timestamp,
		TravelMode:     models.TravelMode(r.TravelMode),
		Km:             r.Km,
		ElectricityKwh: r.ElectricityKwh,
		Lifestyle:      r.Lifestyle,
		CO2:            co2,
	}, nil
}

func parseLegacyTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func readLegacy(dir, name string, target any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
