package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"terminusdex/internal/chain"
	"terminusdex/internal/tonproof"
)

func newVerifyProofCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-proof",
		Short: "Verify a ton_proof read as JSON from --proof or stdin",
		RunE:  runVerifyProof,
	}
	cmd.Flags().String("wallet", "", "wallet address the proof claims")
	cmd.Flags().String("proof", "", "proof JSON file; stdin when empty")
	cmd.Flags().Duration("proof-ttl", 0, "maximum proof age")
	cmd.Flags().Bool("offline", false, "do not ask liteservers for the wallet key")
	return cmd
}

func runVerifyProof(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	wallet, err := addressFlag(cmd, "wallet", true)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("proof")
	var src io.Reader = cmd.InOrStdin()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open proof: %w", err)
		}
		defer f.Close()
		src = f
	}
	var proof tonproof.Proof
	if err := json.NewDecoder(src).Decode(&proof); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}

	opts := []tonproof.Option{
		tonproof.WithTTL(e.cfg.ProofTTL),
		tonproof.WithLogger(e.logger.Named("tonproof")),
	}
	for hash, name := range e.cfg.WalletCodes {
		version, err := tonproof.ParseWalletVersion(name)
		if err != nil {
			return fmt.Errorf("wallet code %s: %w", hash, err)
		}
		opts = append(opts, tonproof.WithWalletCode(hash, version))
	}

	var reader chain.Reader
	if offline, _ := cmd.Flags().GetBool("offline"); !offline {
		client, err := e.dial()
		if err != nil {
			return err
		}
		defer client.Close()
		reader = client
	}
	verifier := tonproof.NewVerifier(reader, opts...)

	if err := verifier.Check(e.ctx, wallet, proof); err != nil {
		e.logger.Info("proof rejected", zap.Error(err))
		return printJSON(cmd, map[string]any{"valid": false, "error": err.Error()})
	}
	return printJSON(cmd, map[string]any{"valid": true})
}
