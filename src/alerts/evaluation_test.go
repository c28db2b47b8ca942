package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"riskwatch/src/model"
)

type fakeThresholds struct {
	sets map[model.AlertType]*model.AlertThreshold
}

func (f *fakeThresholds) Resolve(_ context.Context, alertType model.AlertType, _ model.AlertClass, _ model.Condition) (*model.AlertThreshold, error) {
	return f.sets[alertType], nil
}

func travelThreshold() *model.AlertThreshold {
	return &model.AlertThreshold{
		AlertType:  model.TypeTravelPercentLiquid,
		AlertClass: model.ClassPosition,
		Condition:  model.ConditionBelow,
		Low:        -25,
		Medium:     -50,
		High:       -75,
		Enabled:    true,
	}
}

func evaluated(a model.Alert, v float64) model.Alert {
	a.EvaluatedValue = &v
	return a
}

func TestEvaluate_UnsetValueIsNormal(t *testing.T) {
	s := NewEvaluationService(&fakeThresholds{})

	a := positionAlert(model.TypeTravelPercentLiquid, "pos-1")
	_, err := s.Evaluate(context.Background(), &a)
	require.NoError(t, err)
	require.Equal(t, model.LevelNormal, a.Level)
}

func TestEvaluate_TravelScenarios(t *testing.T) {
	s := NewEvaluationService(&fakeThresholds{sets: map[model.AlertType]*model.AlertThreshold{
		model.TypeTravelPercentLiquid: travelThreshold(),
	}})

	cases := []struct {
		value float64
		want  model.Level
	}{
		{0, model.LevelNormal},    // at entry
		{-50, model.LevelMedium},  // halfway to liquidation
		{-80, model.LevelHigh},    // past the high cutoff
		{-30, model.LevelLow},     // between low and medium
		{+200, model.LevelNormal}, // deep in profit
	}

	for _, tc := range cases {
		a := evaluated(positionAlert(model.TypeTravelPercentLiquid, "pos-1"), tc.value)
		ts, err := s.Evaluate(context.Background(), &a)
		require.NoError(t, err)
		require.NotNil(t, ts)
		require.Equal(t, tc.want, a.Level, "value=%f", tc.value)
	}
}

func TestMapLevel_BoundaryValuesBelongToHigherLevel(t *testing.T) {
	above := &model.AlertThreshold{Low: 1.2, Medium: 1.5, High: 1.8, Enabled: true}

	require.Equal(t, model.LevelMedium, MapLevel(model.ConditionAbove, 1.5, above))
	require.Equal(t, model.LevelHigh, MapLevel(model.ConditionAbove, 1.8, above))
	require.Equal(t, model.LevelLow, MapLevel(model.ConditionAbove, 1.2, above))

	below := travelThreshold()
	require.Equal(t, model.LevelMedium, MapLevel(model.ConditionBelow, -50, below))
	require.Equal(t, model.LevelHigh, MapLevel(model.ConditionBelow, -75, below))
}

func TestMapLevel_MonotoneInValue(t *testing.T) {
	above := &model.AlertThreshold{Low: 10, Medium: 20, High: 30, Enabled: true}

	prev := model.LevelNormal
	for v := 0.0; v <= 40; v += 0.5 {
		level := MapLevel(model.ConditionAbove, v, above)
		require.GreaterOrEqual(t, level.Rank(), prev.Rank(), "value=%f", v)
		prev = level
	}

	below := travelThreshold()
	prev = model.LevelNormal
	for v := 0.0; v >= -100; v -= 0.5 {
		level := MapLevel(model.ConditionBelow, v, below)
		require.GreaterOrEqual(t, level.Rank(), prev.Rank(), "value=%f", v)
		prev = level
	}
}

func TestEvaluate_PortfolioRatioHigh(t *testing.T) {
	s := NewEvaluationService(&fakeThresholds{sets: map[model.AlertType]*model.AlertThreshold{
		model.TypeValueToCollateralRatio: {
			AlertType:  model.TypeValueToCollateralRatio,
			AlertClass: model.ClassPortfolio,
			Condition:  model.ConditionAbove,
			Low:        1.2,
			Medium:     1.5,
			High:       1.8,
			Enabled:    true,
		},
	}})

	a := evaluated(portfolioAlert("value_to_collateral_ratio"), 2.0)
	_, err := s.Evaluate(context.Background(), &a)
	require.NoError(t, err)
	require.Equal(t, model.LevelHigh, a.Level)
}

func TestEvaluate_NoThresholdFallsBackToSimpleTrigger(t *testing.T) {
	s := NewEvaluationService(&fakeThresholds{})

	a := evaluated(marketAlert("BTC"), 70000)
	a.TriggerValue = 65000
	ts, err := s.Evaluate(context.Background(), &a)
	require.NoError(t, err)
	require.Nil(t, ts)
	require.Equal(t, model.LevelHigh, a.Level)

	a = evaluated(marketAlert("BTC"), 60000)
	a.TriggerValue = 65000
	_, err = s.Evaluate(context.Background(), &a)
	require.NoError(t, err)
	require.Equal(t, model.LevelNormal, a.Level)
}

func TestEvaluate_DisabledThresholdFallsBackToSimpleTrigger(t *testing.T) {
	disabled := travelThreshold()
	disabled.Enabled = false

	s := NewEvaluationService(&fakeThresholds{sets: map[model.AlertType]*model.AlertThreshold{
		model.TypeTravelPercentLiquid: disabled,
	}})

	a := evaluated(positionAlert(model.TypeTravelPercentLiquid, "pos-1"), -30)
	a.TriggerValue = -25
	ts, err := s.Evaluate(context.Background(), &a)
	require.NoError(t, err)
	require.Nil(t, ts, "disabled set must not drive channel selection")
	require.Equal(t, model.LevelHigh, a.Level)
}
