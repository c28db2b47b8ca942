package thresholds

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
	"riskwatch/src/repository"
)

// Store is the one home for threshold configuration. Rows live in the
// alert_thresholds table; the JSON file is a seed read once at first boot.
type Store struct {
	repo *repository.ThresholdRepository
}

// NewStore creates a store over the given repository.
func NewStore(repo *repository.ThresholdRepository) *Store {
	return &Store{repo: repo}
}

// Resolve looks up the threshold set for an alert's (type, class, condition)
// key. Returns (nil, nil) when nothing is configured; evaluation then falls
// back to the simple trigger comparison.
func (s *Store) Resolve(
	ctx context.Context,
	alertType model.AlertType,
	class model.AlertClass,
	condition model.Condition,
) (*model.AlertThreshold, error) {

	if alertType == model.TypeUnknown {
		return nil, nil
	}
	return s.repo.FindByKey(ctx, alertType, class, condition)
}

// seedRow is the JSON shape of one threshold in the seed file. Type, class,
// and condition are user-authored strings and go through the fuzzy boundary.
type seedRow struct {
	AlertType      string   `json:"alert_type"`
	AlertClass     string   `json:"alert_class"`
	Condition      string   `json:"condition"`
	Low            float64  `json:"low"`
	Medium         float64  `json:"medium"`
	High           float64  `json:"high"`
	Enabled        bool     `json:"enabled"`
	LowChannels    []string `json:"low_channels"`
	MediumChannels []string `json:"medium_channels"`
	HighChannels   []string `json:"high_channels"`
}

// SeedFromFile loads threshold rows from a JSON file if the table is empty.
// Malformed seed data is a startup-aborting config error, not something to
// limp past: a dashboard running on half a threshold set lies to its user.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", path).Warn("No threshold seed file, starting unconfigured")
			return nil
		}
		return fmt.Errorf("failed to read threshold seed %s: %w", path, err)
	}

	var rows []seedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("malformed threshold seed %s: %w", path, err)
	}

	thresholds := make([]model.AlertThreshold, 0, len(rows))
	for i, row := range rows {
		t, err := buildThreshold(row)
		if err != nil {
			return fmt.Errorf("threshold seed %s row %d: %w", path, i, err)
		}
		thresholds = append(thresholds, *t)
	}

	return s.repo.CreateBatch(ctx, thresholds)
}

func buildThreshold(row seedRow) (*model.AlertThreshold, error) {
	alertType, ok := ParseAlertType(row.AlertType)
	if !ok {
		return nil, fmt.Errorf("unknown alert type %q", row.AlertType)
	}

	class, err := parseClass(row.AlertClass)
	if err != nil {
		return nil, err
	}
	condition, err := parseCondition(row.Condition)
	if err != nil {
		return nil, err
	}

	t := &model.AlertThreshold{
		AlertType:      alertType,
		AlertClass:     class,
		Condition:      condition,
		Low:            row.Low,
		Medium:         row.Medium,
		High:           row.High,
		Enabled:        row.Enabled,
		LowChannels:    toChannelSet(row.LowChannels),
		MediumChannels: toChannelSet(row.MediumChannels),
		HighChannels:   toChannelSet(row.HighChannels),
	}

	migrateLegacyMagnitudes(t)

	if err := validateOrdering(t); err != nil {
		return nil, err
	}

	return t, nil
}

// migrateLegacyMagnitudes rewrites the old convention of storing BELOW
// thresholds for signed quantities as positive magnitudes. A BELOW row on a
// signed metric with all-positive cutoffs can only be a legacy magnitude row.
func migrateLegacyMagnitudes(t *model.AlertThreshold) {
	if t.Condition != model.ConditionBelow {
		return
	}
	if !signedMetric(t.AlertType) {
		return
	}
	if t.Low <= 0 || t.Medium <= 0 || t.High <= 0 {
		return
	}

	logger.WithFields(map[string]interface{}{
		"alert_type": t.AlertType,
		"low":        t.Low,
		"medium":     t.Medium,
		"high":       t.High,
	}).Warn("Rewriting legacy positive-magnitude BELOW thresholds to signed values")

	t.Low, t.Medium, t.High = -t.Low, -t.Medium, -t.High
}

// signedMetric reports whether an alert type's evaluated value is signed
// (so BELOW cutoffs are expected to be negative).
func signedMetric(alertType model.AlertType) bool {
	switch alertType {
	case model.TypeTravelPercentLiquid, model.TypeAvgTravelPercent, model.TypeProfit:
		return true
	default:
		return false
	}
}

func validateOrdering(t *model.AlertThreshold) error {
	if !t.Enabled {
		return nil
	}

	for _, v := range []float64{t.Low, t.Medium, t.High} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite threshold for %s", t.AlertType)
		}
	}

	switch t.Condition {
	case model.ConditionAbove:
		if t.Low > t.Medium || t.Medium > t.High {
			return fmt.Errorf("ABOVE thresholds for %s must satisfy low <= medium <= high", t.AlertType)
		}
	case model.ConditionBelow:
		if t.Low < t.Medium || t.Medium < t.High {
			return fmt.Errorf("BELOW thresholds for %s must satisfy low >= medium >= high", t.AlertType)
		}
	}

	return nil
}

func parseClass(raw string) (model.AlertClass, error) {
	switch normalizeKey(raw) {
	case "market":
		return model.ClassMarket, nil
	case "position":
		return model.ClassPosition, nil
	case "portfolio":
		return model.ClassPortfolio, nil
	default:
		return "", fmt.Errorf("unknown alert class %q", raw)
	}
}

func parseCondition(raw string) (model.Condition, error) {
	switch normalizeKey(raw) {
	case "above", "over":
		return model.ConditionAbove, nil
	case "below", "under":
		return model.ConditionBelow, nil
	default:
		return "", fmt.Errorf("unknown condition %q", raw)
	}
}

func toChannelSet(names []string) model.ChannelSet {
	var cs model.ChannelSet
	for _, name := range names {
		switch normalizeKey(name) {
		case "email":
			cs = append(cs, model.ChannelEmail)
		case "sms":
			cs = append(cs, model.ChannelSMS)
		case "voice", "call", "phonecall":
			cs = append(cs, model.ChannelVoice)
		case "sound":
			cs = append(cs, model.ChannelSound)
		default:
			logger.WithField("channel", name).Warn("Unknown notification channel in seed, skipping")
		}
	}
	return cs
}
