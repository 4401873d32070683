package service

import (
	"context"
	"time"

	"github.com/dao-treasury/dao-server/pkg/config"
	"github.com/dao-treasury/dao-server/pkg/config/env"
	"github.com/dao-treasury/dao-server/pkg/config/memory"
	"github.com/dao-treasury/dao-server/pkg/config/wrapper"
	"github.com/dao-treasury/dao-server/pkg/solana"
)

const (
	envConfigPrefix = "DAO_SERVICE_"

	// Unprefixed names are shared with existing deployments
	AdministratorPrivateKeyConfigEnvName = "BA_PRIVATE_KEY"
	defaultAdministratorPrivateKey       = "invalid" // ensure something valid is set

	RpcEndpointConfigEnvName = "DEFAULT_RPC_CLIENT"
	defaultRpcEndpoint       = string(solana.EnvironmentLocal)

	DefaultMultisigConfigEnvName = "DEFAULT_DAO_PDA"
	defaultDefaultMultisig       = "5MpijLXyybv5LQF48MN4LM7ppJFVUZWCug2TzKL4fKsr"

	VoterPrivateKeysConfigEnvName = envConfigPrefix + "VOTER_PRIVATE_KEYS"
	defaultVoterPrivateKeys       = ""

	ConfirmationCommitmentConfigEnvName = envConfigPrefix + "CONFIRMATION_COMMITMENT"
	defaultConfirmationCommitment       = "confirmed"

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 30 * time.Second

	ConfirmationPollIntervalConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_INTERVAL"
	defaultConfirmationPollInterval       = 500 * time.Millisecond

	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 200_000

	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0 // micro-lamports, no priority fee
)

type conf struct {
	administratorPrivateKey  config.String
	defaultMultisig          config.String
	voterPrivateKeys         config.String
	confirmationCommitment   config.String
	confirmationTimeout      config.Duration
	confirmationPollInterval config.Duration
	computeUnitLimit         config.Uint64
	computeUnitPrice         config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			administratorPrivateKey:  env.NewStringConfig(AdministratorPrivateKeyConfigEnvName, defaultAdministratorPrivateKey),
			defaultMultisig:          env.NewStringConfig(DefaultMultisigConfigEnvName, defaultDefaultMultisig),
			voterPrivateKeys:         env.NewStringConfig(VoterPrivateKeysConfigEnvName, defaultVoterPrivateKeys),
			confirmationCommitment:   env.NewStringConfig(ConfirmationCommitmentConfigEnvName, defaultConfirmationCommitment),
			confirmationTimeout:      env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			confirmationPollInterval: env.NewDurationConfig(ConfirmationPollIntervalConfigEnvName, defaultConfirmationPollInterval),
			computeUnitLimit:         env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
			computeUnitPrice:         env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
		}
	}
}

// NewClientFromEnv returns a Solana RPC client for the endpoint in
// DEFAULT_RPC_CLIENT, which may also be a cluster moniker like devnet.
func NewClientFromEnv(ctx context.Context) solana.Client {
	endpoint := env.NewStringConfig(RpcEndpointConfigEnvName, defaultRpcEndpoint).Get(ctx)
	return solana.New(string(solana.ParseEnvironment(endpoint)))
}

type testOverrides struct {
	administratorPrivateKey string
	defaultMultisig         string
	voterPrivateKeys        string
	computeUnitPrice        uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			administratorPrivateKey:  wrapper.NewStringConfig(memory.NewConfig(overrides.administratorPrivateKey), defaultAdministratorPrivateKey),
			defaultMultisig:          wrapper.NewStringConfig(memory.NewConfig(overrides.defaultMultisig), defaultDefaultMultisig),
			voterPrivateKeys:         wrapper.NewStringConfig(memory.NewConfig(overrides.voterPrivateKeys), defaultVoterPrivateKeys),
			confirmationCommitment:   wrapper.NewStringConfig(memory.NewConfig("finalized"), defaultConfirmationCommitment),
			confirmationTimeout:      wrapper.NewDurationConfig(memory.NewConfig(time.Second), defaultConfirmationTimeout),
			confirmationPollInterval: wrapper.NewDurationConfig(memory.NewConfig(10*time.Millisecond), defaultConfirmationPollInterval),
			computeUnitLimit:         wrapper.NewUint64Config(memory.NewConfig(uint64(defaultComputeUnitLimit)), defaultComputeUnitLimit),
			computeUnitPrice:         wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
		}
	}
}
