package alerts

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// AlertStore is the slice of the alert repository the core drives.
type AlertStore interface {
	FindActive(ctx context.Context) ([]model.Alert, error)
	UpdateEvaluation(ctx context.Context, alert *model.Alert) error
	DeleteStalePositionAlerts(ctx context.Context) (int64, error)
}

// Dispatcher routes a non-normal evaluated alert to its channels. It returns
// how many notifications actually went out.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert model.Alert, threshold *model.AlertThreshold) (int, error)
}

// CycleReport summarizes one ProcessCycle run.
type CycleReport struct {
	Evaluated     int
	Triggered     int
	Notifications int
	Errors        int
}

// Core drives one evaluation cycle: load active alerts, enrich, evaluate,
// persist, dispatch. All collaborators are passed in explicitly; tests build
// their own.
type Core struct {
	alerts     AlertStore
	enricher   *EnrichmentService
	evaluator  *EvaluationService
	dispatcher Dispatcher
}

// NewCore wires the orchestrator.
func NewCore(alerts AlertStore, enricher *EnrichmentService, evaluator *EvaluationService, dispatcher Dispatcher) *Core {
	return &Core{
		alerts:     alerts,
		enricher:   enricher,
		evaluator:  evaluator,
		dispatcher: dispatcher,
	}
}

// ProcessCycle runs one full pass over the active alerts. Per alert the
// sequence enrich -> evaluate -> persist -> dispatch is strict; dispatch only
// runs after the evaluation write committed. Alerts that fail enrichment keep
// their prior state and emit nothing this cycle.
//
// A persistence failure (after the repository's own retry) aborts the cycle;
// the next cycle re-attempts from a clean state.
func (c *Core) ProcessCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	active, err := c.alerts.FindActive(ctx)
	if err != nil {
		return report, err
	}
	if len(active) == 0 {
		return report, nil
	}

	results := c.enricher.EnrichAll(ctx, active)

	for _, res := range results {
		if res.Err != nil {
			report.Errors++
			continue
		}

		a := res.Alert

		threshold, err := c.evaluator.Evaluate(ctx, &a)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"alert_id": a.ID,
			}).WithError(err).Warn("Alert evaluation failed, keeping prior state")
			report.Errors++
			continue
		}

		if err := c.alerts.UpdateEvaluation(ctx, &a); err != nil {
			// Second write failure in a row; bail and let the next cycle retry.
			return report, err
		}
		report.Evaluated++

		if a.Level == model.LevelNormal {
			continue
		}
		report.Triggered++

		sent, err := c.dispatcher.Dispatch(ctx, a, threshold)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"alert_id": a.ID,
				"level":    a.Level,
			}).WithError(err).Warn("Dispatch failed, alert re-enters dispatch next cycle")
			report.Errors++
			continue
		}
		report.Notifications += sent
	}

	logger.WithFields(map[string]interface{}{
		"evaluated":     report.Evaluated,
		"triggered":     report.Triggered,
		"notifications": report.Notifications,
		"errors":        report.Errors,
	}).Info("Alert cycle completed")

	return report, nil
}

// ClearStaleAlerts deletes every position-class alert whose referenced
// position no longer exists. Runs before any cycle preceded by a position
// refresh.
func (c *Core) ClearStaleAlerts(ctx context.Context) (int64, error) {
	return c.alerts.DeleteStalePositionAlerts(ctx)
}
