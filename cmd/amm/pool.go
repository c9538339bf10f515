package main

import (
	"context"

	"github.com/spf13/cobra"

	"liquidityCore/internal/model"
	"liquidityCore/internal/service"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and inspect pools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <a> <b>",
			Short: "Create the pool for a pair of coin types",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				a, b, err := service.ParsePair(args[0], args[1])
				if err != nil {
					return err
				}
				return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
					info, err := s.svc.CreatePool(a, b)
					if err != nil {
						return nil, err
					}
					return info.Record(), nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List pools",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				return runQuery(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
					infos := s.registry.Pools()
					records := make([]model.PoolRecord, 0, len(infos))
					for _, info := range infos {
						records = append(records, info.Record())
					}
					return records, nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <a> <b>",
			Short: "Show one pool",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				a, b, err := service.ParsePair(args[0], args[1])
				if err != nil {
					return err
				}
				return runQuery(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
					info, err := s.registry.Info(a, b)
					if err != nil {
						return nil, err
					}
					return info.Record(), nil
				})
			},
		},
	)
	return cmd
}

func newSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply <account> <a> <b> <amount-a> <amount-b>",
		Short: "Deposit both coins of a pair and receive pool shares",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			account, err := service.ParseAccount(args[0])
			if err != nil {
				return err
			}
			a, b, err := service.ParsePair(args[1], args[2])
			if err != nil {
				return err
			}
			amountA, err := parseAmount("amount-a", args[3])
			if err != nil {
				return err
			}
			amountB, err := parseAmount("amount-b", args[4])
			if err != nil {
				return err
			}
			return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
				shares, err := s.svc.Supply(account, a, b, amountA, amountB)
				if err != nil {
					return nil, err
				}
				return map[string]uint64{"shares": shares}, nil
			})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account> <a> <b> <shares>",
		Short: "Burn pool shares and withdraw both coins",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			account, err := service.ParseAccount(args[0])
			if err != nil {
				return err
			}
			a, b, err := service.ParsePair(args[1], args[2])
			if err != nil {
				return err
			}
			shares, err := parseAmount("shares", args[3])
			if err != nil {
				return err
			}
			return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
				outA, outB, err := s.svc.Remove(account, a, b, shares)
				if err != nil {
					return nil, err
				}
				return map[string]uint64{"amount_a": outA, "amount_b": outB}, nil
			})
		},
	}
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap <account> <a> <b>",
		Short: "Swap against a pool; both directions may be given at once",
		Args:  cobra.ExactArgs(3),
		RunE:  runSwap,
	}
	cmd.Flags().Uint64("in-a", 0, "amount of a paid in")
	cmd.Flags().Uint64("in-b", 0, "amount of b paid in")
	cmd.Flags().Uint64("out-a", 0, "amount of a requested out")
	cmd.Flags().Uint64("out-b", 0, "amount of b requested out")
	return cmd
}

func runSwap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	account, err := service.ParseAccount(args[0])
	if err != nil {
		return err
	}
	a, b, err := service.ParsePair(args[1], args[2])
	if err != nil {
		return err
	}
	inA, _ := cmd.Flags().GetUint64("in-a")
	inB, _ := cmd.Flags().GetUint64("in-b")
	outA, _ := cmd.Flags().GetUint64("out-a")
	outB, _ := cmd.Flags().GetUint64("out-b")

	return runMutation(cmd, cfg, func(_ context.Context, s *session) (interface{}, error) {
		gotA, gotB, err := s.svc.Swap(account, a, b, inA, inB, outA, outB)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"amount_a": gotA, "amount_b": gotB}, nil
	})
}
