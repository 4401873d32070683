package service

import (
	"context"
	"crypto/ed25519"
	"strconv"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/dao/project"
	project_memory "github.com/dao-treasury/dao-server/pkg/dao/project/memory"
	"github.com/dao-treasury/dao-server/pkg/solana/memory"
	"github.com/dao-treasury/dao-server/pkg/solana/squads/squadstest"
	"github.com/dao-treasury/dao-server/pkg/testutil"
)

const (
	testProject = "project-1"
	testFunding = 10 * LamportsPerSol
)

type testEnv struct {
	ctx      context.Context
	client   *memory.Client
	projects project.Store
	service  *Service
	admin    ed25519.PrivateKey
	voter    ed25519.PrivateKey
}

func setup(t *testing.T) testEnv {
	return setupWith(t, func(*testOverrides) {})
}

func setupWith(t *testing.T, configure func(*testOverrides)) testEnv {
	client := memory.NewClient()

	treasury := testutil.GenerateSolanaKeys(t, 1)[0]
	_, err := squadstest.Install(client, treasury, 0)
	require.NoError(t, err)

	admin := testutil.GenerateSolanaKeypair(t)
	voter := testutil.GenerateSolanaKeypair(t)
	testutil.FundAccount(t, client, admin.Public().(ed25519.PublicKey), testFunding)
	testutil.FundAccount(t, client, voter.Public().(ed25519.PublicKey), testFunding)

	projects := project_memory.New()
	overrides := &testOverrides{
		administratorPrivateKey: base58.Encode(admin),
		defaultMultisig:         base58.Encode(testutil.GenerateSolanaKeys(t, 1)[0]),
		voterPrivateKeys:        base58.Encode(voter),
	}
	configure(overrides)

	service, err := New(client, projects, withManualTestOverrides(overrides))
	require.NoError(t, err)

	return testEnv{
		ctx:      context.Background(),
		client:   client,
		projects: projects,
		service:  service,
		admin:    admin,
		voter:    voter,
	}
}

func (e testEnv) multisig(t *testing.T) *multisig.Multisig {
	address, err := e.service.MultisigAddress(e.ctx, testProject)
	require.NoError(t, err)

	facade, err := multisig.NewFromAddress(e.ctx, e.client, e.service.Administrator(), address)
	require.NoError(t, err)
	return facade
}

func (e testEnv) adminAddress() string {
	return base58.Encode(e.service.Administrator())
}

func (e testEnv) voterAddress() string {
	return base58.Encode(e.voter.Public().(ed25519.PublicKey))
}

// addVoter runs the full add member lifecycle for the test voter.
func (e testEnv) addVoter(t *testing.T) {
	_, err := e.service.AddMember(e.ctx, testProject, e.voterAddress(), nil)
	require.NoError(t, err)
	_, err = e.service.Vote(e.ctx, testProject, e.adminAddress(), VoteApprove)
	require.NoError(t, err)
	_, err = e.service.ExecuteProposal(e.ctx, testProject)
	require.NoError(t, err)
}

func byteListEncoding(key ed25519.PrivateKey) string {
	parts := make([]string, len(key))
	for i, b := range key {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ",")
}
