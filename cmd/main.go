package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"riskwatch/cmd/monitor"
)

var Version string

func main() {
	setupLogger()

	app := cli.NewApp()
	app.Name = "riskwatch"
	app.Usage = "Personal trading risk monitor command line interface"

	app.Commands = []cli.Command{
		monitorCMD,
		cycleCMD,
		serveCMD,
		pricesCMD,
		positionsCMD,
		staleCMD,
		hedgesCMD,
		enrichCMD,
		evaluateCMD,
		seedAlertsCMD,
		wipeCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

var (
	monitorCMD = cli.Command{
		Name:        "monitor",
		Usage:       "run the monitor loop with the status server",
		Action:      monitorAction,
		Description: `Run the full monitor: price and position sync, enrichment, hedge detection, alert evaluation, notifications, and the status API, until interrupted.`,
	}
	cycleCMD = cli.Command{
		Name:        "cycle",
		Usage:       "run one monitor cycle and exit",
		Action:      func(_ *cli.Context) error { return monitor.RunCycleOnce() },
		Description: `Run a single end-to-end cycle and exit.`,
	}
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run only the status server",
		Action:      func(_ *cli.Context) error { return monitor.Serve() },
		Description: `Serve the read-only status API and websocket feed without running cycles.`,
	}
	pricesCMD = cli.Command{
		Name:        "prices",
		Usage:       "fetch and record current prices",
		Action:      func(_ *cli.Context) error { return monitor.UpdatePrices() },
		Description: `Fetch current prices for the tracked assets and append them to the price history.`,
	}
	positionsCMD = cli.Command{
		Name:        "positions",
		Usage:       "sync open positions for all active wallets",
		Action:      func(_ *cli.Context) error { return monitor.UpdatePositions() },
		Description: `Fetch open positions from the venue and reconcile stored rows.`,
	}
	staleCMD = cli.Command{
		Name:        "stale",
		Usage:       "delete alerts for positions that no longer exist",
		Action:      func(_ *cli.Context) error { return monitor.ClearStale() },
		Description: `Remove position-class alerts whose referenced position is gone.`,
	}
	hedgesCMD = cli.Command{
		Name:        "hedges",
		Usage:       "recompute hedge pairing",
		Action:      func(_ *cli.Context) error { return monitor.RelinkHedges() },
		Description: `Group positions by wallet and asset and mark long/short pairs.`,
	}
	enrichCMD = cli.Command{
		Name:        "enrich",
		Usage:       "recompute derived position fields",
		Action:      func(_ *cli.Context) error { return monitor.EnrichPositions() },
		Description: `Rewrite leverage, value, travel percent, liquidation distance, and heat index for every stored position.`,
	}
	evaluateCMD = cli.Command{
		Name:        "evaluate",
		Usage:       "run one alert evaluation pass",
		Action:      func(_ *cli.Context) error { return monitor.EvaluateAlerts() },
		Description: `Enrich, grade, and dispatch the active alert set once, without syncing positions or prices first.`,
	}
	seedAlertsCMD = cli.Command{
		Name:        "seed-alerts",
		Usage:       "create the standing alert set",
		Action:      func(_ *cli.Context) error { return monitor.SeedAlerts() },
		Description: `Create default position, market, and portfolio alerts. Idempotent.`,
	}
	wipeCMD = cli.Command{
		Name:        "wipe",
		Usage:       "clear monitor data, keeping wallets",
		Action:      func(_ *cli.Context) error { return monitor.WipeData() },
		Description: `Delete positions, prices, alerts, thresholds, snapshots, and ledger rows. Wallets survive.`,
	}
)

func monitorAction(_ *cli.Context) error {
	logrus.Info("Starting monitor CMD")

	m := &monitor.Monitor{}
	if err := m.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}
