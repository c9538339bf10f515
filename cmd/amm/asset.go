package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityCore/internal/asset"
	"liquidityCore/internal/chain"
	"liquidityCore/internal/config"
	"liquidityCore/internal/erc20"
	"liquidityCore/internal/service"
)

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Register fungible asset types",
	}

	registerCmd := &cobra.Command{
		Use:   "register <type>",
		Short: "Register a new coin type (0x<address>::<module>::<name>)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssetRegister,
	}
	registerCmd.Flags().String("name", "", "coin name")
	registerCmd.Flags().String("symbol", "", "coin symbol")
	registerCmd.Flags().Uint8("decimals", 8, "coin decimals")
	_ = registerCmd.MarkFlagRequired("symbol")

	importCmd := &cobra.Command{
		Use:   "import <token-address>",
		Short: "Register an ERC20 token as a coin type using its on-chain metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssetImport,
	}
	importCmd.Flags().String("rpc", "", "EVM RPC URL")
	importCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	importCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")

	cmd.AddCommand(registerCmd, importCmd)
	return cmd
}

func runAssetRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	t, err := asset.ParseTypeID(args[0])
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	symbol, _ := cmd.Flags().GetString("symbol")
	decimals, _ := cmd.Flags().GetUint8("decimals")
	if name == "" {
		name = symbol
	}

	return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
		if err := s.svc.RegisterAsset(t, name, symbol, decimals); err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": t.String(), "name": name, "symbol": symbol, "decimals": decimals}, nil
	})
}

func runAssetImport(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadImport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid token address: %q", args[0])
	}
	token := common.HexToAddress(args[0])

	return runMutation(cmd, cfg.Config, func(ctx context.Context, s *session) (interface{}, error) {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()

		chainID, err := client.GetChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("chain id: %w", err)
		}
		s.logger.Info("import start", zap.String("token", token.Hex()), zap.String("chain_id", chainID.String()))

		isContract, err := client.HasCode(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("code at %s: %w", token.Hex(), err)
		}
		if !isContract {
			return nil, fmt.Errorf("%s is not a contract on chain %s", token.Hex(), chainID)
		}

		fetcher := erc20.NewFetcher(client, cfg.MaxRetries, cfg.RetryBackoff, s.logger)
		meta, err := fetcher.FetchTokenMeta(ctx, token)
		if err != nil {
			return nil, err
		}
		t, err := asset.ParseTypeID(meta.Type)
		if err != nil {
			return nil, err
		}
		if err := s.svc.RegisterAsset(t, meta.Name, meta.Symbol, meta.Decimals); err != nil {
			return nil, err
		}
		return meta, nil
	})
}

func newFaucetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faucet <account> <type> <amount>",
		Short: "Mint coins into an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			account, err := service.ParseAccount(args[0])
			if err != nil {
				return err
			}
			t, err := asset.ParseTypeID(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
				if err := s.svc.Fund(account, t, amount); err != nil {
					return nil, err
				}
				return balanceView(s, account, t), nil
			})
		},
	}
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account> <type>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			account, err := service.ParseAccount(args[0])
			if err != nil {
				return err
			}
			t, err := asset.ParseTypeID(args[1])
			if err != nil {
				return err
			}
			return runQuery(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
				return balanceView(s, account, t), nil
			})
		},
	}
}

func balanceView(s *session, account common.Address, t asset.TypeID) map[string]interface{} {
	return map[string]interface{}{
		"account": account.Hex(),
		"type":    t.String(),
		"amount":  s.svc.Balance(account, t),
	}
}
