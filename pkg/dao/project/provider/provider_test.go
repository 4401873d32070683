package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
)

func TestNew_InMemoryWithoutHost(t *testing.T) {
	t.Setenv(HostConfigEnvName, "")

	store, release, err := New(context.Background(), WithEnvConfigs())
	require.NoError(t, err)
	defer release()

	_, err = store.Get(context.Background(), "project-1")
	assert.Equal(t, project.ErrProjectNotFound, err)
}
