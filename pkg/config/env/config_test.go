package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dao-treasury/dao-server/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "value")

	v, err := NewConfig(env).Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	// Lookups are case insensitive
	v, err = NewConfig("env_config_test_var").Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	t.Setenv(env, "")
	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_QUEUE", "request.rs")
	t.Setenv("ENV_CONFIG_TEST_LIMIT", "12")
	t.Setenv("ENV_CONFIG_TEST_TIMEOUT", "90s")
	t.Setenv("ENV_CONFIG_TEST_ENABLED", "true")
	t.Setenv("ENV_CONFIG_TEST_INVALID", "twelve")

	assert.Equal(t, "request.rs", NewStringConfig("ENV_CONFIG_TEST_QUEUE", "default").Get(ctx))
	assert.EqualValues(t, 12, NewUint64Config("ENV_CONFIG_TEST_LIMIT", 5).Get(ctx))
	assert.Equal(t, 90*time.Second, NewDurationConfig("ENV_CONFIG_TEST_TIMEOUT", time.Second).Get(ctx))
	assert.True(t, NewBoolConfig("ENV_CONFIG_TEST_ENABLED", false).Get(ctx))

	// Unset and invalid variables fall back to the default
	assert.Equal(t, "default", NewStringConfig("ENV_CONFIG_TEST_UNSET", "default").Get(ctx))
	assert.EqualValues(t, 5, NewUint64Config("ENV_CONFIG_TEST_INVALID", 5).Get(ctx))

	_, err := NewUint64Config("ENV_CONFIG_TEST_INVALID", 5).GetSafe(ctx)
	assert.Error(t, err)
}
