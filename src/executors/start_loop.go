package executors

import (
	"context"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/alerts"
	"riskwatch/src/calc"
	"riskwatch/src/ledger"
	"riskwatch/src/model"
)

// WalletSource lists the wallets positions are fetched for.
type WalletSource interface {
	FindActive(ctx context.Context) ([]model.Wallet, error)
}

// PositionFetcher reads open positions from the venue.
type PositionFetcher interface {
	FetchPositions(ctx context.Context, walletName, walletAddress string) ([]model.Position, error)
}

// PriceFetcher reads current spot prices.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, assets []string) ([]model.Price, error)
}

// PositionSyncStore is the slice of the position repository the sync writes
// through.
type PositionSyncStore interface {
	UpsertBatch(ctx context.Context, positions []model.Position) error
	DeleteMissing(ctx context.Context, keepIDs []string) (int64, error)
}

// PriceStore appends observed prices.
type PriceStore interface {
	InsertBatch(ctx context.Context, prices []model.Price) error
}

// SnapshotStore appends portfolio snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, snap *model.PortfolioSnapshot) error
}

// LedgerStore mirrors cycle summaries into the database.
type LedgerStore interface {
	Insert(ctx context.Context, entry *model.LedgerEntry) error
}

// PositionEnricher rewrites derived position fields and returns the
// enriched set.
type PositionEnricher interface {
	EnrichAll(ctx context.Context) ([]model.Position, error)
}

// HedgeLinker recomputes hedge pairing.
type HedgeLinker interface {
	Relink(ctx context.Context) ([]model.HedgePair, error)
}

// AlertEngine runs one evaluation pass over the active alerts.
type AlertEngine interface {
	ProcessCycle(ctx context.Context) (alerts.CycleReport, error)
	ClearStaleAlerts(ctx context.Context) (int64, error)
}

// AlertSeeder keeps the standing alert set covering new positions.
type AlertSeeder interface {
	SeedPositionAlerts(ctx context.Context) (int, error)
}

// Runner drives the monitor cycle: sync prices and positions, enrich, relink
// hedges, snapshot the portfolio, evaluate alerts, record the cycle. Every
// step is also callable on its own for the console commands.
type Runner struct {
	cfg Config

	wallets    WalletSource
	fetcher    PositionFetcher
	prices     PriceFetcher
	positions  PositionSyncStore
	priceStore PriceStore
	snapshots  SnapshotStore
	ledgerRepo LedgerStore
	journal    *ledger.Writer
	enricher   PositionEnricher
	hedges     HedgeLinker
	engine     AlertEngine
	seeder     AlertSeeder

	// OnCycle, when set, receives every completed cycle summary. The status
	// server uses it to push updates over websockets.
	OnCycle func(model.LedgerEntry)
}

// NewRunner wires a runner over explicit collaborators.
func NewRunner(
	cfg Config,
	wallets WalletSource,
	fetcher PositionFetcher,
	prices PriceFetcher,
	positions PositionSyncStore,
	priceStore PriceStore,
	snapshots SnapshotStore,
	ledgerRepo LedgerStore,
	journal *ledger.Writer,
	enricher PositionEnricher,
	hedges HedgeLinker,
	engine AlertEngine,
	seeder AlertSeeder,
) *Runner {
	return &Runner{
		cfg:        cfg,
		wallets:    wallets,
		fetcher:    fetcher,
		prices:     prices,
		positions:  positions,
		priceStore: priceStore,
		snapshots:  snapshots,
		ledgerRepo: ledgerRepo,
		journal:    journal,
		enricher:   enricher,
		hedges:     hedges,
		engine:     engine,
		seeder:     seeder,
	}
}

// UpdatePrices fetches and records current prices for the tracked assets.
func (r *Runner) UpdatePrices(ctx context.Context) (int, error) {
	prices, err := r.prices.FetchPrices(ctx, r.cfg.Assets)
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, nil
	}
	if err := r.priceStore.InsertBatch(ctx, prices); err != nil {
		return 0, err
	}
	return len(prices), nil
}

// UpdatePositions syncs open positions for every active wallet. Rows gone
// from the venue are deleted, but only when every wallet fetch succeeded;
// one flaky wallet must not wipe another wallet's rows.
func (r *Runner) UpdatePositions(ctx context.Context) (int, error) {
	wallets, err := r.wallets.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	var fetched []model.Position
	fetchFailed := false
	for _, w := range wallets {
		ps, err := r.fetcher.FetchPositions(ctx, w.Name, w.PublicAddress)
		if err != nil {
			logger.WithFields(logger.Fields{"wallet": w.Name}).
				WithError(err).Error("Position fetch failed, keeping stored rows")
			fetchFailed = true
			continue
		}
		fetched = append(fetched, ps...)
	}

	if len(fetched) > 0 {
		if err := r.positions.UpsertBatch(ctx, fetched); err != nil {
			return 0, err
		}
	}

	if !fetchFailed {
		keep := make([]string, 0, len(fetched))
		for _, p := range fetched {
			keep = append(keep, p.ID)
		}
		deleted, err := r.positions.DeleteMissing(ctx, keep)
		if err != nil {
			return len(fetched), err
		}
		if deleted > 0 {
			logger.WithField("deleted", deleted).Info("Closed positions removed")
		}
	}

	return len(fetched), nil
}

// WriteSnapshot aggregates the given positions and appends one portfolio
// snapshot row.
func (r *Runner) WriteSnapshot(ctx context.Context, positions []model.Position) (*model.PortfolioSnapshot, error) {
	snap := calc.PortfolioTotals(positions)
	snap.Timestamp = time.Now().UTC()
	if err := r.snapshots.Insert(ctx, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ClearStale removes alerts whose referenced position is gone.
func (r *Runner) ClearStale(ctx context.Context) (int64, error) {
	return r.engine.ClearStaleAlerts(ctx)
}

// RelinkHedges recomputes hedge pairing and returns the detected pairs.
func (r *Runner) RelinkHedges(ctx context.Context) ([]model.HedgePair, error) {
	return r.hedges.Relink(ctx)
}

// EnrichPositions rewrites derived fields across all stored positions.
func (r *Runner) EnrichPositions(ctx context.Context) ([]model.Position, error) {
	return r.enricher.EnrichAll(ctx)
}

// EvaluateAlerts runs one alert pass without the surrounding sync steps.
func (r *Runner) EvaluateAlerts(ctx context.Context) (alerts.CycleReport, error) {
	return r.engine.ProcessCycle(ctx)
}

// RunCycle executes one full monitor pass and records it. Partial failures
// are counted, logged, and do not abort the rest of the cycle; the alert
// engine always runs on whatever state the earlier steps left behind.
func (r *Runner) RunCycle(ctx context.Context) (model.LedgerEntry, error) {
	started := time.Now()
	cycleID := uuid.NewString()
	log := logger.WithField("cycle_id", cycleID)
	errCount := 0

	if _, err := r.UpdatePrices(ctx); err != nil {
		log.WithError(err).Error("Price update failed")
		errCount++
	}

	positionCount, err := r.UpdatePositions(ctx)
	if err != nil {
		log.WithError(err).Error("Position sync failed")
		errCount++
	}

	if stale, err := r.engine.ClearStaleAlerts(ctx); err != nil {
		log.WithError(err).Error("Stale alert cleanup failed")
		errCount++
	} else if stale > 0 {
		log.WithField("deleted", stale).Info("Stale alerts cleared")
	}

	enriched, err := r.enricher.EnrichAll(ctx)
	if err != nil {
		log.WithError(err).Error("Position enrichment failed")
		errCount++
	}

	if _, err := r.hedges.Relink(ctx); err != nil {
		log.WithError(err).Error("Hedge relink failed")
		errCount++
	}

	if _, err := r.WriteSnapshot(ctx, enriched); err != nil {
		log.WithError(err).Error("Snapshot write failed")
		errCount++
	}

	if r.seeder != nil {
		if _, err := r.seeder.SeedPositionAlerts(ctx); err != nil {
			log.WithError(err).Error("Alert seeding failed")
			errCount++
		}
	}

	report, err := r.engine.ProcessCycle(ctx)
	if err != nil {
		log.WithError(err).Error("Alert cycle failed")
		errCount++
	}

	entry := model.LedgerEntry{
		CycleID:           cycleID,
		Timestamp:         started.UTC(),
		Positions:         positionCount,
		AlertsEvaluated:   report.Evaluated,
		AlertsTriggered:   report.Triggered,
		NotificationsSent: report.Notifications,
		Errors:            errCount + report.Errors,
		DurationMs:        time.Since(started).Milliseconds(),
	}
	r.record(ctx, entry)

	log.WithFields(logger.Fields{
		"positions":   entry.Positions,
		"evaluated":   entry.AlertsEvaluated,
		"triggered":   entry.AlertsTriggered,
		"sent":        entry.NotificationsSent,
		"errors":      entry.Errors,
		"duration_ms": entry.DurationMs,
	}).Info("Cycle completed")

	return entry, nil
}

func (r *Runner) record(ctx context.Context, entry model.LedgerEntry) {
	if r.ledgerRepo != nil {
		if err := r.ledgerRepo.Insert(ctx, &entry); err != nil {
			logger.WithError(err).Warn("Ledger row insert failed")
		}
	}
	if r.journal != nil {
		if err := r.journal.Append(entry); err != nil {
			logger.WithError(err).Warn("Ledger journal append failed")
		}
		if err := r.journal.Heartbeat(time.Now()); err != nil {
			logger.WithError(err).Warn("Heartbeat write failed")
		}
	}
	if r.OnCycle != nil {
		r.OnCycle(entry)
	}
}

// StartLoop runs cycles until the context is cancelled. The first cycle runs
// immediately; later ones follow the configured period.
func (r *Runner) StartLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.LoopPeriod)
	defer ticker.Stop()

	logger.WithField("period", r.cfg.LoopPeriod).Info("Monitor loop started")

	if _, err := r.RunCycle(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Monitor loop stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RunCycle(ctx); err != nil {
				return err
			}
		}
	}
}
