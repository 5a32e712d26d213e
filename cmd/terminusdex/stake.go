package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"terminusdex/internal/staking"
)

// withStaking runs fn with a staking service over the store and a liteserver connection.
func withStaking(cmd *cobra.Command, fn func(e *env, svc *staking.Service) error) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

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

	return fn(e, staking.NewService(store, client, e.cfg.Testnet, staking.WithLogger(e.logger.Named("staking"))))
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("pg-dsn", "", "Postgres DSN; the file store is used when empty")
	cmd.Flags().String("store-file", "./data/store.json", "file store path")
}

func newStakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Prepare a stake transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			contract, err := addressFlag(cmd, "contract", true)
			if err != nil {
				return err
			}
			user, err := addressFlag(cmd, "user", true)
			if err != nil {
				return err
			}
			offer, err := unitsFlag(cmd, "units")
			if err != nil {
				return err
			}
			if offer == nil {
				return fmt.Errorf("--units is required")
			}
			return withStaking(cmd, func(e *env, svc *staking.Service) error {
				prepared, err := svc.PrepareStake(e.ctx, contract, user, offer)
				if err != nil {
					return err
				}
				return printJSON(cmd, prepared)
			})
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().String("contract", "", "staking contract address")
	cmd.Flags().String("user", "", "wallet address")
	cmd.Flags().String("units", "", "in-asset units to stake")
	return cmd
}

func newStakeDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake-data",
		Short: "Show registered staking contracts, or the live state of one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			contract, err := addressFlag(cmd, "contract", false)
			if err != nil {
				return err
			}
			return withStaking(cmd, func(e *env, svc *staking.Service) error {
				if contract == nil {
					list, err := svc.Contracts(e.ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, list)
				}
				data, err := svc.StakeData(e.ctx, contract)
				if err != nil {
					return err
				}
				return printJSON(cmd, data)
			})
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().String("contract", "", "staking contract address")
	return cmd
}
