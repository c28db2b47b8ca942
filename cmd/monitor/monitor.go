package monitor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"riskwatch/src/alerts"
	"riskwatch/src/connectors"
	"riskwatch/src/database"
	"riskwatch/src/executors"
	"riskwatch/src/ledger"
	"riskwatch/src/notify"
	"riskwatch/src/positions"
	"riskwatch/src/repository"
	"riskwatch/src/server"
	"riskwatch/src/thresholds"
)

// Monitor is the long-running entrypoint: the cycle loop plus the status
// server on one process, stopped together on SIGINT/SIGTERM.
type Monitor struct{}

func (m *Monitor) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := initDatabases(); err != nil {
		return err
	}

	runner, err := buildRunner(ctx)
	if err != nil {
		return err
	}

	hub := server.NewHub()
	runner.OnCycle = hub.BroadcastCycle

	srv := buildServer(hub)
	go func() {
		if err := srv.Start(ctx); err != nil {
			logrus.WithError(err).Error("Status server stopped with error")
		}
	}()

	return runner.StartLoop(ctx)
}

func initDatabases() error {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to main database")
		return err
	}
	if err := database.InitReadOnlyDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to read-only database")
		return err
	}
	return nil
}

// buildRunner wires the full cycle over the live connectors and repositories,
// seeding wallets and threshold sets on first boot.
func buildRunner(ctx context.Context) (*executors.Runner, error) {
	cfg := executors.GetConfig()

	walletRepo := repository.NewWalletRepository()
	if err := walletRepo.SeedFromFile(ctx, cfg.WalletSeedPath); err != nil {
		return nil, err
	}

	store := thresholds.NewStore(repository.NewThresholdRepository())
	if err := store.SeedFromFile(ctx, cfg.ThresholdSeedPath); err != nil {
		return nil, err
	}

	connCfg := connectors.GetConfig()
	jupiter := connectors.NewJupiterClient("", connCfg)
	gecko := connectors.NewCoinGeckoClient("", connCfg)

	positionRepo := repository.NewPositionRepository()
	priceRepo := repository.NewPriceRepository()
	snapshotRepo := repository.NewSnapshotRepository()
	alertRepo := repository.NewAlertRepository()
	ledgerRepo := repository.NewLedgerRepository()

	notifyCfg := notify.GetConfig()
	dispatcher := notify.NewDispatcher(alertRepo, notifyCfg,
		notify.NewEmailChannel(notifyCfg),
		notify.NewSMSChannel(notifyCfg),
		notify.NewVoiceChannel(notifyCfg),
		notify.NewSoundChannel(notifyCfg),
	)

	core := alerts.NewCore(
		alertRepo,
		alerts.NewEnrichmentService(positionRepo, priceRepo, snapshotRepo),
		alerts.NewEvaluationService(store),
		dispatcher,
	)

	return executors.NewRunner(
		cfg,
		walletRepo,
		jupiter,
		gecko,
		positionRepo,
		priceRepo,
		snapshotRepo,
		ledgerRepo,
		ledger.NewWriter(ledger.GetConfig()),
		positions.NewEnricher(positionRepo, priceRepo),
		positions.NewHedgeDetector(positionRepo),
		core,
		alerts.NewSeeder(alertRepo, positionRepo, priceRepo),
	), nil
}

// buildServer serves the status API off the read-only connection.
func buildServer(hub *server.Hub) *server.Server {
	ro := database.ReadOnlyDB
	return server.NewServer(
		server.GetConfig(),
		repository.NewPositionRepository().WithDB(ro),
		repository.NewAlertRepository().WithDB(ro),
		repository.NewSnapshotRepository().WithDB(ro),
		repository.NewLedgerRepository().WithDB(ro),
		hub,
	)
}

// Serve runs only the status server, for a UI pointed at a database another
// process is writing.
func Serve() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := initDatabases(); err != nil {
		return err
	}

	hub := server.NewHub()
	return buildServer(hub).Start(ctx)
}
