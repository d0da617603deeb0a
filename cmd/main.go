package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"holosim/internal/common"
	"holosim/internal/config"
	"holosim/internal/engine"
	"holosim/internal/exchange"
	"holosim/internal/reserve"
	"holosim/internal/world"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to simulation config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	configureLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	status, err := build(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build simulation")
	}

	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error {
		return status.Run(ctx)
	})

	<-ctx.Done()
	if err := t.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("simulation exited with error")
	}
}

func configureLogging(cfg config.LoggingConfig) {
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// build wires config into a runnable *engine.Status: world clock, exchange,
// and an optional buy-back/issuing reserve. There are no trading agents
// configured by default — this is a bare simulation skeleton; a deployment
// adds its own agent roster by extending this function.
func build(cfg *config.Config) (*engine.Status, error) {
	w, err := buildWorld(cfg.World)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	exch := exchange.New(cfg.Exchange.Name, cfg.Exchange.Currency, nil)

	var agents []common.Runner
	if cfg.Reserve.Security != "" {
		if cfg.Issuing.SupplyAvailable > 0 {
			bookValue, _ := decimal.NewFromString(cfg.Issuing.SupplyBookValue)
			premium, _ := decimal.NewFromString(cfg.Issuing.SupplyPremium)
			ir := reserve.NewIssuing(
				cfg.Reserve.Security, cfg.Reserve.Identity, cfg.Reserve.Tranches,
				cfg.Issuing.SupplyAvailable, w.Now(),
				reserve.WithSupplyBookValue(bookValue),
				reserve.WithSupplyPremium(premium),
				reserve.WithSupplyPeriod(cfg.Issuing.SupplyPeriod),
			)
			exch.Register(cfg.Reserve.Security, ir)
			agents = append(agents, ir)
		} else {
			r := reserve.New(cfg.Reserve.Security, cfg.Reserve.Identity, cfg.Reserve.Tranches, w.Now())
			exch.Register(cfg.Reserve.Security, r)
			agents = append(agents, r)
		}
	}

	eng := engine.New(w, exch, agents)
	return engine.NewStatus(eng, cfg.Status.Period, cfg.Status.BookWidth), nil
}

func buildWorld(cfg config.WorldConfig) (world.Timeline, error) {
	if cfg.Realtime {
		return world.NewRealtime(common.SystemClock{}, cfg.Start, cfg.Duration, 0, cfg.Scale)
	}
	return world.New(cfg.Start, cfg.Duration, cfg.Quanta), nil
}
