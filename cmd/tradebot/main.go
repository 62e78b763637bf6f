package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Bich992/Trading-BOT/internal/app"
	"github.com/Bich992/Trading-BOT/internal/backtest"
	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/feed"
	"github.com/Bich992/Trading-BOT/internal/infra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "tradebot",
		Short: "Autonomous paper-trading bot",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: auto-resolve)")
	root.AddCommand(runCmd(), backtestCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live paper-trading loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrap := app.NewBootstrap()
			if err := bootstrap.Initialize(configPath); err != nil {
				slog.Error("bootstrap failed", slog.Any("error", err))
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bootstrap.StartStreams(ctx)

			err := bootstrap.Engine.RunLoop(ctx, iterations)
			if err != nil && ctx.Err() == nil {
				slog.Error("trading loop failed", slog.Any("error", err))
			}

			recap := bootstrap.Engine.Summary()
			slog.Info("session recap",
				slog.Int("trades", recap.Trades),
				slog.Float64("fees", recap.Fees),
				slog.Float64("realized", recap.Realized),
				slog.Float64("equity", recap.Equity))

			if err := bootstrap.Shutdown(context.Background()); err != nil {
				slog.Error("shutdown failed", slog.Any("error", err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 0, "stop after N steps (0 = run until interrupted)")
	return cmd
}

func backtestCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical CSV candles through the live decision path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = infra.ResolveConfigPath()
			}
			cfg, err := infra.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger := infra.NewLogger(cfg)
			slog.SetDefault(logger)

			if dataDir == "" {
				dataDir = cfg.Feed.DataDir
			}
			if dataDir == "" {
				return fmt.Errorf("backtest requires a data directory (--data or feed.data_dir)")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			csvFeed := feed.NewCSVFeed(dataDir)
			historical := make(map[string]domain.Series, len(cfg.Assets))
			for _, a := range cfg.Assets {
				s, err := csvFeed.LatestOHLC(ctx, a.Symbol, a.Timeframes[0])
				if err != nil {
					return fmt.Errorf("failed to load candles for %s: %w", a.Symbol, err)
				}
				historical[a.Symbol] = s
			}

			runner := backtest.NewRunner(cfg.Paper, cfg.Risk, cfg.Size, nil, logger)
			res := runner.Run(historical)

			final := res.EquityCurve[len(res.EquityCurve)-1]
			slog.Info("backtest finished",
				slog.Int("trades", len(res.Trades)),
				slog.Float64("final_equity", final),
				slog.Float64("sharpe", res.Sharpe),
				slog.Float64("max_drawdown", res.MaxDrawdown))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of <SYMBOL>_<timeframe>.csv files")
	return cmd
}
