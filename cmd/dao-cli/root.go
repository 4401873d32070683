package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dao-treasury/dao-server/pkg/dao/project/provider"
	"github.com/dao-treasury/dao-server/pkg/dao/service"
	"github.com/dao-treasury/dao-server/pkg/solana"
)

var (
	projectID string
	rpcURL    string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "dao-cli",
	Short:         "Manage project DAO treasuries backed by Squads multisigs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.SetOutput(os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "project the DAO belongs to")
	rootCmd.PersistentFlags().StringVarP(&rpcURL, "url", "u", "", "RPC endpoint or cluster moniker [devnet, testnet, mainnet-beta, localhost], overrides DEFAULT_RPC_CLIENT")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

// newService builds a service from the same environment as the worker. The
// returned func releases the project store.
func newService(ctx context.Context) (*service.Service, func(), error) {
	projects, release, err := provider.New(ctx, provider.WithEnvConfigs())
	if err != nil {
		return nil, nil, err
	}

	svc, err := service.New(newClient(ctx), projects, service.WithEnvConfigs())
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

func newClient(ctx context.Context) solana.Client {
	if len(rpcURL) > 0 {
		return solana.New(string(solana.ParseEnvironment(rpcURL)))
	}
	return service.NewClientFromEnv(ctx)
}

func requireProject() error {
	if len(projectID) == 0 {
		return errors.New("--project is required")
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
