package main

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tickdex/tickdex-engine-go/cmd/poold/config"
	"github.com/tickdex/tickdex-engine-go/engine"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/eventlog"
	"github.com/tickdex/tickdex-engine-go/token"
)

var (
	simToken0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	simToken1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	simLP     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	simTrader = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Concentrated liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted market session against an in-memory engine",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("owner", "", "engine owner address")
	simulateCmd.Flags().String("vault", "", "vault address custodying pool funds")
	simulateCmd.Flags().String("event-log", "./data/events.jsonl", "event JSONL output path")
	simulateCmd.Flags().String("metrics-addr", "", "Prometheus listen address, empty disables")
	simulateCmd.Flags().Uint32("fee", 3000, "pool fee tier in ppm")
	simulateCmd.Flags().Int64("liquidity", 10_000_000, "liquidity minted by the LP")
	simulateCmd.Flags().Int("swaps", 50, "number of swaps to run")
	simulateCmd.Flags().Int64("swap-size", 1000, "max input amount per swap")
	simulateCmd.Flags().Int64("seed", 1, "random seed for the trade sequence")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, registry, logger)
	}

	owner := common.HexToAddress(cfg.Owner)
	vault := common.HexToAddress(cfg.Vault)

	tokens := token.NewInMemoryService()
	now := uint32(time.Now().Unix())
	clock := func() uint32 { return now }

	eng, err := engine.New(engine.Config{
		Owner:      owner,
		Vault:      vault,
		Tokens:     tokens,
		Sink:       eventlog.NewJsonlSink(cfg.EventLog),
		Logger:     logger,
		Registerer: registry,
		Clock:      clock,
	})
	if err != nil {
		return err
	}

	funds := big.NewInt(1_000_000_000)
	for _, account := range []common.Address{simLP, simTrader} {
		for _, tok := range []common.Address{simToken0, simToken1} {
			tokens.Mint(tok, account, funds)
			if err := tokens.Approve(tok, account, vault, funds); err != nil {
				return err
			}
		}
	}

	id, err := eng.CreatePool(simToken0, simToken1, cfg.Fee)
	if err != nil {
		return err
	}
	if _, err := eng.Initialize(simToken0, simToken1, cfg.Fee, new(big.Int).Set(fullmath.Q96)); err != nil {
		return err
	}

	spacing, ok := eng.FeeTierSpacing(cfg.Fee)
	if !ok {
		return fmt.Errorf("fee tier %d is not enabled", cfg.Fee)
	}
	tickLower, tickUpper := -10*spacing, 10*spacing

	amount0, amount1, err := eng.Mint(engine.MintParams{
		Owner:     simLP,
		TokenA:    simToken0,
		TokenB:    simToken1,
		Fee:       cfg.Fee,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: big.NewInt(cfg.Liquidity),
	})
	if err != nil {
		return err
	}
	logger.Info("position opened",
		zap.String("pool", id.Hex()),
		zap.Int64("tick_lower", tickLower),
		zap.Int64("tick_upper", tickUpper),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()))

	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Swaps; i++ {
		if ctx.Err() != nil {
			break
		}
		now++

		zeroForOne := rng.Intn(2) == 0
		amountIn := big.NewInt(rng.Int63n(cfg.SwapSize) + 1)

		if _, err := eng.Swap(engine.SwapParams{
			Sender:          simTrader,
			Recipient:       simTrader,
			TokenA:          simToken0,
			TokenB:          simToken1,
			Fee:             cfg.Fee,
			ZeroForOne:      zeroForOne,
			AmountSpecified: amountIn,
		}); err != nil {
			return fmt.Errorf("swap %d: %w", i, err)
		}
	}

	// Close out the position: burn everything, then collect principal
	// plus accrued fees.
	now++
	burned0, burned1, err := eng.Burn(engine.BurnParams{
		Owner:     simLP,
		TokenA:    simToken0,
		TokenB:    simToken1,
		Fee:       cfg.Fee,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: big.NewInt(cfg.Liquidity),
	})
	if err != nil {
		return err
	}

	collected0, collected1, err := eng.Collect(engine.CollectParams{
		Owner:     simLP,
		Recipient: simLP,
		TokenA:    simToken0,
		TokenB:    simToken1,
		Fee:       cfg.Fee,
		TickLower: tickLower,
		TickUpper: tickUpper,
	})
	if err != nil {
		return err
	}

	fees0 := new(big.Int).Sub(collected0, burned0)
	fees1 := new(big.Int).Sub(collected1, burned1)

	state, err := eng.PoolState(simToken0, simToken1, cfg.Fee)
	if err != nil {
		return err
	}

	logger.Info("session complete",
		zap.String("pool", id.Hex()),
		zap.Int("swaps", cfg.Swaps),
		zap.Int64("final_tick", state.Tick),
		zap.String("collected0", collected0.String()),
		zap.String("collected1", collected1.String()),
		zap.String("fees0", fees0.String()),
		zap.String("fees1", fees1.String()),
		zap.String("event_log", cfg.EventLog))
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
