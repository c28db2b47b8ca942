package monitor

import (
	"context"

	"github.com/sirupsen/logrus"

	"riskwatch/src/alerts"
	"riskwatch/src/database"
	"riskwatch/src/executors"
	"riskwatch/src/repository"
)

// One-shot console commands. Each initializes the database, runs a single
// monitor step, and reports through the log.

func withRunner(run func(ctx context.Context, r *executors.Runner) error) error {
	ctx := context.Background()

	if err := initDatabases(); err != nil {
		return err
	}
	runner, err := buildRunner(ctx)
	if err != nil {
		return err
	}
	return run(ctx, runner)
}

func RunCycleOnce() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		entry, err := r.RunCycle(ctx)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"cycle_id":  entry.CycleID,
			"evaluated": entry.AlertsEvaluated,
			"triggered": entry.AlertsTriggered,
			"sent":      entry.NotificationsSent,
			"errors":    entry.Errors,
		}).Info("Cycle finished")
		return nil
	})
}

func UpdatePrices() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		count, err := r.UpdatePrices(ctx)
		if err != nil {
			return err
		}
		logrus.WithField("prices", count).Info("Prices updated")
		return nil
	})
}

func UpdatePositions() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		count, err := r.UpdatePositions(ctx)
		if err != nil {
			return err
		}
		logrus.WithField("positions", count).Info("Positions synced")
		return nil
	})
}

func ClearStale() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		deleted, err := r.ClearStale(ctx)
		if err != nil {
			return err
		}
		logrus.WithField("deleted", deleted).Info("Stale alerts cleared")
		return nil
	})
}

func RelinkHedges() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		pairs, err := r.RelinkHedges(ctx)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			logrus.WithFields(logrus.Fields{
				"wallet":     p.Wallet,
				"asset":      p.Asset,
				"positions":  len(p.PositionIDs),
				"long_size":  p.TotalLongSize,
				"short_size": p.TotalShortSize,
			}).Info("Hedge pair")
		}
		logrus.WithField("pairs", len(pairs)).Info("Hedge relink finished")
		return nil
	})
}

func EnrichPositions() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		enriched, err := r.EnrichPositions(ctx)
		if err != nil {
			return err
		}
		logrus.WithField("positions", len(enriched)).Info("Positions enriched")
		return nil
	})
}

func EvaluateAlerts() error {
	return withRunner(func(ctx context.Context, r *executors.Runner) error {
		report, err := r.EvaluateAlerts(ctx)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"evaluated": report.Evaluated,
			"triggered": report.Triggered,
			"sent":      report.Notifications,
			"errors":    report.Errors,
		}).Info("Alert evaluation finished")
		return nil
	})
}

// SeedAlerts creates the standing alert set: per-position, per-asset, and
// portfolio-wide. Safe to run repeatedly.
func SeedAlerts() error {
	ctx := context.Background()

	if err := initDatabases(); err != nil {
		return err
	}

	cfg := executors.GetConfig()
	seeder := alerts.NewSeeder(
		repository.NewAlertRepository(),
		repository.NewPositionRepository(),
		repository.NewPriceRepository(),
	)

	positionSeeds, err := seeder.SeedPositionAlerts(ctx)
	if err != nil {
		return err
	}
	marketSeeds, err := seeder.SeedMarketAlerts(ctx, cfg.Assets)
	if err != nil {
		return err
	}
	portfolioSeeds, err := seeder.SeedPortfolioAlerts(ctx)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"position":  positionSeeds,
		"market":    marketSeeds,
		"portfolio": portfolioSeeds,
	}).Info("Alerts seeded")
	return nil
}

// WipeData clears every table except wallets.
func WipeData() error {
	if err := database.InitMainDB(); err != nil {
		return err
	}
	if err := database.Wipe(); err != nil {
		return err
	}
	logrus.Info("Monitor data wiped, wallets kept")
	return nil
}
