package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"terminusdex/internal/boc"
	"terminusdex/internal/indexer"
	"terminusdex/internal/storage"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Discover router pools and keep them in the store",
		RunE:  runIndex,
	}
	cmd.Flags().String("router-address", "", "router contract address")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN; the file store is used when empty")
	cmd.Flags().String("store-file", "./data/store.json", "file store path")
	cmd.Flags().Int("page-size", indexer.DefaultPageSize, "transactions per page")
	cmd.Flags().Int("jetton-page-size", indexer.DefaultCatalogPageSize, "jettons per catalog page")
	cmd.Flags().Duration("interval", 0, "pause between runs")
	cmd.Flags().Duration("retry-backoff", 0, "initial delay after a failed page")
	cmd.Flags().Bool("once", false, "run a single update and exit")
	cmd.Flags().String("journal", "", "append every run result to this JSONL file")
	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.cfg.RouterAddress == "" {
		return fmt.Errorf("router address is required")
	}
	router, err := boc.ParseAddress(e.cfg.RouterAddress)
	if err != nil {
		return err
	}

	client, err := e.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	icfg := indexer.Config{
		Router:          router,
		PageSize:        e.cfg.PageSize,
		CatalogPageSize: e.cfg.JettonPageSize,
		RetryBackoff:    e.cfg.RetryBackoff,
	}
	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		icfg.Journal = storage.NewJournal(path)
	}
	obs := indexer.NewObserver(icfg, client, store, e.logger.Named("indexer"))

	e.logger.Info("index start",
		zap.String("router", e.cfg.RouterAddress),
		zap.Int("page_size", e.cfg.PageSize),
		zap.Int("jetton_page_size", e.cfg.JettonPageSize),
		zap.Duration("interval", e.cfg.Interval),
	)

	if once, _ := cmd.Flags().GetBool("once"); once {
		res, err := obs.UpdatePools(e.ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	}
	if err := obs.Run(e.ctx, e.cfg.Interval); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List indexed pools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			pools, err := store.ListPools(e.ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, pools)
		},
	}
	cmd.Flags().String("pg-dsn", "", "Postgres DSN; the file store is used when empty")
	cmd.Flags().String("store-file", "./data/store.json", "file store path")
	return cmd
}
