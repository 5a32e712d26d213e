package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/config"
	"terminusdex/internal/storage"
	"terminusdex/internal/storage/memory"
	"terminusdex/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "terminusdex",
		Short:        "TON DEX and staking aggregator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("liteserver-config", "", "liteserver global config URL")
	root.PersistentFlags().Bool("testnet", false, "target testnet")

	root.AddCommand(
		newIndexCmd(),
		newPoolsCmd(),
		newSwapCmd(),
		newProvideCmd(),
		newActivateCmd(),
		newRefundCmd(),
		newBurnCmd(),
		newStakeCmd(),
		newStakeDataCmd(),
		newVerifyProofCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// env carries what every subcommand builds before doing its work.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	ctx    context.Context
	stop   context.CancelFunc
}

func setup(cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &env{cfg: cfg, logger: logger, ctx: ctx, stop: stop}, nil
}

func (e *env) close() {
	e.stop()
	_ = e.logger.Sync()
}

func (e *env) dial() (*chain.LiteClient, error) {
	catalog, err := e.cfg.Catalog()
	if err != nil {
		return nil, err
	}
	client, err := chain.NewLiteClient(e.ctx, chain.LiteClientOptions{
		ConfigURL: e.cfg.LiteserverConfig,
		Catalog:   catalog,
		Logger:    e.logger.Named("chain"),
	})
	if err != nil {
		return nil, fmt.Errorf("connect liteservers: %w", err)
	}
	return client, nil
}

// openStore uses postgres when a DSN is configured and the JSON file store
// otherwise. Configured staking contracts are upserted on open.
func (e *env) openStore() (storage.Store, error) {
	var store storage.Store
	if e.cfg.PGDSN != "" {
		pg, err := postgres.NewStore(e.ctx, e.cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(e.ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store = pg
		e.logger.Info("store open", zap.String("kind", "postgres"), zap.String("pg_dsn", redactDSN(e.cfg.PGDSN)))
	} else {
		mem, err := memory.Open(e.cfg.StoreFile)
		if err != nil {
			return nil, fmt.Errorf("open store file: %w", err)
		}
		store = mem
		e.logger.Info("store open", zap.String("kind", "file"), zap.String("path", e.cfg.StoreFile))
	}

	if err := seedStaking(e.ctx, store, e.cfg); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func seedStaking(ctx context.Context, store storage.Store, cfg config.Config) error {
	records, err := cfg.StakingRecords()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		_, ok, err := tx.GetStakingContract(ctx, rec.Address)
		if err != nil {
			return err
		}
		if ok {
			err = tx.UpdateStakingContract(ctx, rec)
		} else {
			err = tx.CreateStakingContract(ctx, rec)
		}
		if err != nil {
			return fmt.Errorf("seed staking contract %s: %w", rec.Address, err)
		}
	}
	return tx.Commit(ctx)
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addressFlag(cmd *cobra.Command, name string, required bool) (*address.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		if required {
			return nil, fmt.Errorf("--%s is required", name)
		}
		return nil, nil
	}
	addr, err := boc.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

func unitsFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("--%s: %q is not an integer", name, raw)
	}
	return v, nil
}

func slippageFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("slippage")
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("--slippage: %w", err)
	}
	return d, nil
}
