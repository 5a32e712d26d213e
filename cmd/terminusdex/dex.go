package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/dex"
)

func addDexFlags(cmd *cobra.Command) {
	cmd.Flags().String("router-address", "", "router contract address")
	cmd.Flags().String("proxy-ton-address", "", "proxy TON minter address")
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("first", "", "first token minter (native placeholder for TON)")
	cmd.Flags().String("second", "", "second token minter")
}

func (e *env) dexService(reader chain.Reader) (*dex.Service, error) {
	if e.cfg.RouterAddress == "" || e.cfg.ProxyTonAddress == "" {
		return nil, fmt.Errorf("router and proxy ton addresses are required")
	}
	router, err := boc.ParseAddress(e.cfg.RouterAddress)
	if err != nil {
		return nil, err
	}
	proxy, err := boc.ParseAddress(e.cfg.ProxyTonAddress)
	if err != nil {
		return nil, err
	}
	return dex.NewService(reader, dex.Config{Router: router, ProxyTon: proxy, Testnet: e.cfg.Testnet},
		dex.WithLogger(e.logger.Named("dex")))
}

// withDex runs fn with a connected dex service.
func withDex(cmd *cobra.Command, fn func(e *env, svc *dex.Service) error) error {
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

	svc, err := e.dexService(client)
	if err != nil {
		return err
	}
	return fn(e, svc)
}

func liquidityRequest(cmd *cobra.Command) (dex.LiquidityRequest, error) {
	var req dex.LiquidityRequest
	var err error
	if req.User, err = addressFlag(cmd, "user", true); err != nil {
		return req, err
	}
	if req.First, err = addressFlag(cmd, "first", true); err != nil {
		return req, err
	}
	if req.Second, err = addressFlag(cmd, "second", true); err != nil {
		return req, err
	}
	if req.FirstUnits, err = unitsFlag(cmd, "first-units"); err != nil {
		return req, err
	}
	if req.SecondUnits, err = unitsFlag(cmd, "second-units"); err != nil {
		return req, err
	}
	req.MinLP, err = unitsFlag(cmd, "min-lp")
	return req, err
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote a swap, or prepare it when --user is set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req dex.SwapRequest
			var err error
			if req.Offer, err = addressFlag(cmd, "offer", true); err != nil {
				return err
			}
			if req.Ask, err = addressFlag(cmd, "ask", true); err != nil {
				return err
			}
			if req.Referral, err = addressFlag(cmd, "referral", false); err != nil {
				return err
			}
			if req.Units, err = unitsFlag(cmd, "units"); err != nil {
				return err
			}
			if req.Units == nil {
				return fmt.Errorf("--units is required")
			}
			if req.Slippage, err = slippageFlag(cmd); err != nil {
				return err
			}
			reverse, _ := cmd.Flags().GetBool("reverse")
			if reverse {
				req.Type = dex.SwapReverse
			}
			user, err := addressFlag(cmd, "user", false)
			if err != nil {
				return err
			}

			return withDex(cmd, func(e *env, svc *dex.Service) error {
				if user == nil {
					quote, err := svc.SwapQuote(e.ctx, req)
					if err != nil {
						return err
					}
					return printJSON(cmd, quote)
				}
				tx, quote, err := svc.PrepareSwap(e.ctx, user, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"quote": quote, "transaction": tx})
			})
		},
	}
	addDexFlags(cmd)
	cmd.Flags().String("offer", "", "offered token minter")
	cmd.Flags().String("ask", "", "asked token minter")
	cmd.Flags().String("referral", "", "referral address")
	cmd.Flags().String("units", "", "offer units, or ask units with --reverse")
	cmd.Flags().String("slippage", "1", "slippage tolerance in percent")
	cmd.Flags().Bool("reverse", false, "quote the offer needed for --units of the ask token")
	cmd.Flags().String("user", "", "wallet address; prepares the transaction when set")
	return cmd
}

func newProvideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provide",
		Short: "Resolve provide-liquidity parameters, or prepare the transaction when --user is set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req dex.ProvideRequest
			var err error
			if req.First, err = addressFlag(cmd, "first", true); err != nil {
				return err
			}
			if req.Second, err = addressFlag(cmd, "second", true); err != nil {
				return err
			}
			if req.FirstUnits, err = unitsFlag(cmd, "first-units"); err != nil {
				return err
			}
			if req.SecondUnits, err = unitsFlag(cmd, "second-units"); err != nil {
				return err
			}
			if req.Slippage, err = slippageFlag(cmd); err != nil {
				return err
			}
			req.FirstIsBase, _ = cmd.Flags().GetBool("first-is-base")
			user, err := addressFlag(cmd, "user", false)
			if err != nil {
				return err
			}

			return withDex(cmd, func(e *env, svc *dex.Service) error {
				if user == nil {
					params, err := svc.ProvideLiquidityParams(e.ctx, req)
					if err != nil {
						return err
					}
					return printJSON(cmd, params)
				}
				tx, params, err := svc.PrepareProvide(e.ctx, user, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"params": params, "transaction": tx})
			})
		},
	}
	addDexFlags(cmd)
	addPairFlags(cmd)
	cmd.Flags().String("first-units", "", "first token units")
	cmd.Flags().String("second-units", "", "second token units")
	cmd.Flags().Bool("first-is-base", true, "derive the second amount from the first")
	cmd.Flags().String("slippage", "1", "slippage tolerance in percent")
	cmd.Flags().String("user", "", "wallet address; considers its LP account and prepares the transaction")
	return cmd
}

func newActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Prepare minting LP from staged LP account balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := liquidityRequest(cmd)
			if err != nil {
				return err
			}
			return withDex(cmd, func(e *env, svc *dex.Service) error {
				tx, err := svc.PrepareActivateLiquidity(e.ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, tx)
			})
		},
	}
	addDexFlags(cmd)
	addPairFlags(cmd)
	cmd.Flags().String("user", "", "wallet address")
	cmd.Flags().String("first-units", "", "first token units")
	cmd.Flags().String("second-units", "", "second token units")
	cmd.Flags().String("min-lp", "1", "minimum LP units to mint")
	return cmd
}

func newRefundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Prepare a refund of staged LP account balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := liquidityRequest(cmd)
			if err != nil {
				return err
			}
			return withDex(cmd, func(e *env, svc *dex.Service) error {
				tx, err := svc.PrepareRefund(e.ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, tx)
			})
		},
	}
	addDexFlags(cmd)
	addPairFlags(cmd)
	cmd.Flags().String("user", "", "wallet address")
	return cmd
}

func newBurnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Prepare burning LP tokens, or show the expected payout without --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			first, err := addressFlag(cmd, "first", true)
			if err != nil {
				return err
			}
			second, err := addressFlag(cmd, "second", true)
			if err != nil {
				return err
			}
			lp, err := unitsFlag(cmd, "lp-units")
			if err != nil {
				return err
			}
			if lp == nil {
				return fmt.Errorf("--lp-units is required")
			}
			user, err := addressFlag(cmd, "user", false)
			if err != nil {
				return err
			}
			return withDex(cmd, func(e *env, svc *dex.Service) error {
				expected, err := svc.ExpectedLiquidity(e.ctx, first, second, lp)
				if err != nil {
					return err
				}
				if user == nil {
					return printJSON(cmd, expected)
				}
				tx, err := svc.PrepareBurnLiquidity(e.ctx, user, first, second, lp)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"expected": expected, "transaction": tx})
			})
		},
	}
	addDexFlags(cmd)
	addPairFlags(cmd)
	cmd.Flags().String("user", "", "wallet address; prepares the transaction when set")
	cmd.Flags().String("lp-units", "", "LP units to burn")
	return cmd
}
