package alerts

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// ThresholdSource resolves configured threshold sets.
type ThresholdSource interface {
	Resolve(ctx context.Context, alertType model.AlertType, class model.AlertClass, condition model.Condition) (*model.AlertThreshold, error)
}

// EvaluationService maps an enriched alert's evaluated value to a level.
// This is the only place grading policy lives.
type EvaluationService struct {
	thresholds ThresholdSource
}

// NewEvaluationService wires an evaluation service over a threshold source.
func NewEvaluationService(thresholds ThresholdSource) *EvaluationService {
	return &EvaluationService{thresholds: thresholds}
}

// Evaluate sets the alert's level and returns the threshold set that graded
// it (nil when grading fell back to the simple trigger comparison, which is
// how user-created one-off alerts work without full threshold config).
func (s *EvaluationService) Evaluate(ctx context.Context, a *model.Alert) (*model.AlertThreshold, error) {
	if !a.Evaluated() {
		a.Level = model.LevelNormal
		return nil, nil
	}

	threshold, err := s.thresholds.Resolve(ctx, a.AlertType, a.AlertClass, a.Condition)
	if err != nil {
		return nil, err
	}

	if threshold == nil || !threshold.Enabled {
		a.Level = simpleTriggerLevel(a.Condition, *a.EvaluatedValue, a.TriggerValue)
		if threshold != nil {
			logger.WithFields(map[string]interface{}{
				"alert_id":   a.ID,
				"alert_type": a.AlertType,
			}).Debug("Threshold set disabled, used simple trigger evaluation")
		}
		return nil, nil
	}

	a.Level = MapLevel(a.Condition, *a.EvaluatedValue, threshold)
	return threshold, nil
}

// MapLevel grades a value against a threshold set. Boundary values belong to
// the higher level: value == medium under ABOVE is Medium, not Low.
func MapLevel(condition model.Condition, value float64, t *model.AlertThreshold) model.Level {
	switch condition {
	case model.ConditionAbove:
		switch {
		case value >= t.High:
			return model.LevelHigh
		case value >= t.Medium:
			return model.LevelMedium
		case value >= t.Low:
			return model.LevelLow
		default:
			return model.LevelNormal
		}

	case model.ConditionBelow:
		// BELOW thresholds are a descending sequence (the store enforces it).
		switch {
		case value <= t.High:
			return model.LevelHigh
		case value <= t.Medium:
			return model.LevelMedium
		case value <= t.Low:
			return model.LevelLow
		default:
			return model.LevelNormal
		}

	default:
		return model.LevelNormal
	}
}

// simpleTriggerLevel is the fallback when no enabled threshold set exists:
// High when the condition is met against the user's trigger value, Normal
// otherwise.
func simpleTriggerLevel(condition model.Condition, value, trigger float64) model.Level {
	switch condition {
	case model.ConditionAbove:
		if value >= trigger {
			return model.LevelHigh
		}
	case model.ConditionBelow:
		if value <= trigger {
			return model.LevelHigh
		}
	}
	return model.LevelNormal
}
