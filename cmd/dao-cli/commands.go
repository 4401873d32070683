package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dao-treasury/dao-server/pkg/dao/service"
)

// serviceCommand runs fn against a service built from the environment and
// prints its result.
func serviceCommand(needsProject bool, fn func(ctx context.Context, svc *service.Service, args []string) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if needsProject {
			if err := requireProject(); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		svc, release, err := newService(ctx)
		if err != nil {
			return err
		}
		defer release()

		result, err := fn(ctx, svc, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
		return err
	}
}

var createDaoCmd = &cobra.Command{
	Use:   "create-dao",
	Short: "Create a DAO for the project and print its multisig address",
	Args:  cobra.NoArgs,
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, _ []string) (string, error) {
		return svc.CreateDao(ctx, projectID)
	}),
}

var permissions []string

var addMemberCmd = &cobra.Command{
	Use:   "add-member <pubkey>",
	Short: "Propose adding a member",
	Args:  cobra.ExactArgs(1),
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		return svc.AddMember(ctx, projectID, args[0], permissions)
	}),
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove-member <pubkey>",
	Short: "Propose removing a member",
	Args:  cobra.ExactArgs(1),
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		return svc.RemoveMember(ctx, projectID, args[0])
	}),
}

var changeThresholdCmd = &cobra.Command{
	Use:   "change-threshold <threshold>",
	Short: "Propose a new approval threshold",
	Args:  cobra.ExactArgs(1),
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		threshold, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil {
			return "", errors.Wrap(err, "invalid threshold")
		}
		return svc.ChangeThreshold(ctx, projectID, uint16(threshold))
	}),
}

var executeProposalCmd = &cobra.Command{
	Use:   "execute-proposal",
	Short: "Execute the approved config transaction",
	Args:  cobra.NoArgs,
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, _ []string) (string, error) {
		return svc.ExecuteProposal(ctx, projectID)
	}),
}

var voteCmd = &cobra.Command{
	Use:   "vote <voter> <Approve|Cancel>",
	Short: "Vote on the current proposal with a configured key",
	Args:  cobra.ExactArgs(2),
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		return svc.Vote(ctx, projectID, args[0], args[1])
	}),
}

var execute bool

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <receiver> <lamports>",
	Short: "Propose, or with --execute execute, a transfer out of the vault",
	Args:  cobra.ExactArgs(2),
	RunE: serviceCommand(true, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return "", errors.Wrap(err, "invalid amount")
		}
		return svc.Withdraw(ctx, projectID, execute, args[0], amount)
	}),
}

var airdropCmd = &cobra.Command{
	Use:   "airdrop <address> <sol>",
	Short: "Request an airdrop on a test cluster",
	Args:  cobra.ExactArgs(2),
	RunE: serviceCommand(false, func(ctx context.Context, svc *service.Service, args []string) (string, error) {
		sol, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return "", errors.Wrap(err, "invalid amount")
		}
		return svc.Airdrop(ctx, args[0], sol)
	}),
}

var showMultisig string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the on-chain state of the project's DAO",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(showMultisig) == 0 {
			if err := requireProject(); err != nil {
				return err
			}
		}

		svc, release, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		var summary *service.DaoSummary
		if len(showMultisig) > 0 {
			summary, err = svc.DescribeByMultisig(cmd.Context(), showMultisig)
		} else {
			summary, err = svc.Describe(cmd.Context(), projectID)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

func init() {
	addMemberCmd.Flags().StringSliceVar(&permissions, "permissions", nil, "member permissions: initiate, vote, execute")
	withdrawCmd.Flags().BoolVar(&execute, "execute", false, "execute the approved transfer instead of proposing it")
	showCmd.Flags().StringVar(&showMultisig, "multisig", "", "look up the DAO by multisig address instead of --project")

	rootCmd.AddCommand(
		createDaoCmd,
		addMemberCmd,
		removeMemberCmd,
		changeThresholdCmd,
		executeProposalCmd,
		voteCmd,
		withdrawCmd,
		airdropCmd,
		showCmd,
	)
}
