package provider

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/config"
	"github.com/dao-treasury/dao-server/pkg/config/env"
	"github.com/dao-treasury/dao-server/pkg/dao/project"
	project_memory "github.com/dao-treasury/dao-server/pkg/dao/project/memory"
	project_postgres "github.com/dao-treasury/dao-server/pkg/dao/project/postgres"
	pg "github.com/dao-treasury/dao-server/pkg/database/postgres"
)

const (
	envConfigPrefix = "DAO_DATABASE_"

	HostConfigEnvName = envConfigPrefix + "HOST"
	defaultHost       = "" // in memory store

	PortConfigEnvName = envConfigPrefix + "PORT"
	defaultPort       = 5432

	UserConfigEnvName = envConfigPrefix + "USER"
	defaultUser       = "postgres"

	PasswordConfigEnvName = envConfigPrefix + "PASSWORD"
	defaultPassword       = ""

	NameConfigEnvName = envConfigPrefix + "NAME"
	defaultName       = "dao"

	UseAwsIamConfigEnvName = envConfigPrefix + "USE_AWS_IAM"
	defaultUseAwsIam       = false

	MaxOpenConnectionsConfigEnvName = envConfigPrefix + "MAX_OPEN_CONNECTIONS"
	defaultMaxOpenConnections       = 10

	MaxIdleConnectionsConfigEnvName = envConfigPrefix + "MAX_IDLE_CONNECTIONS"
	defaultMaxIdleConnections       = 5
)

type conf struct {
	host               config.String
	port               config.Uint64
	user               config.String
	password           config.String
	name               config.String
	useAwsIam          config.Bool
	maxOpenConnections config.Uint64
	maxIdleConnections config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			host:               env.NewStringConfig(HostConfigEnvName, defaultHost),
			port:               env.NewUint64Config(PortConfigEnvName, defaultPort),
			user:               env.NewStringConfig(UserConfigEnvName, defaultUser),
			password:           env.NewStringConfig(PasswordConfigEnvName, defaultPassword),
			name:               env.NewStringConfig(NameConfigEnvName, defaultName),
			useAwsIam:          env.NewBoolConfig(UseAwsIamConfigEnvName, defaultUseAwsIam),
			maxOpenConnections: env.NewUint64Config(MaxOpenConnectionsConfigEnvName, defaultMaxOpenConnections),
			maxIdleConnections: env.NewUint64Config(MaxIdleConnectionsConfigEnvName, defaultMaxIdleConnections),
		}
	}
}

// New returns the project store described by the config along with a func
// that releases it. Without a database host, bindings are kept in memory and
// are lost when the process exits.
func New(ctx context.Context, configProvider ConfigProvider) (project.Store, func(), error) {
	conf := configProvider()
	log := logrus.StandardLogger().WithField("type", "dao/project/provider")

	host := conf.host.Get(ctx)
	if len(host) == 0 {
		log.Warn("no database configured, project bindings are kept in memory")
		return project_memory.New(), func() {}, nil
	}

	db, err := pg.Open(&pg.Config{
		User:               conf.user.Get(ctx),
		Host:               host,
		Password:           conf.password.Get(ctx),
		Port:               int(conf.port.Get(ctx)),
		DbName:             conf.name.Get(ctx),
		MaxOpenConnections: int(conf.maxOpenConnections.Get(ctx)),
		MaxIdleConnections: int(conf.maxIdleConnections.Get(ctx)),
		UseAwsIam:          conf.useAwsIam.Get(ctx),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error opening project database")
	}

	return project_postgres.New(db), func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("failure closing project database")
		}
	}, nil
}
