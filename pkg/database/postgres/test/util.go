// Package test runs disposable Postgres containers for store tests.
package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/dao-treasury/dao-server/pkg/retry"
	"github.com/dao-treasury/dao-server/pkg/retry/backoff"
)

const (
	repository = "postgres"
	tag        = "16-alpine"

	// Containers outliving the test binary are killed by docker
	expiry = 5 * time.Minute

	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"

	connectAttempts = 60
	connectInterval = 500 * time.Millisecond
)

// StartPostgresDB starts a Postgres container, waits for it to accept
// connections and applies schema. The returned func closes the client and
// removes the container. It's safe to call when an error is returned.
func StartPostgresDB(pool *dockertest.Pool, schema ...string) (*sql.DB, func(), error) {
	log := logrus.StandardLogger().WithField("type", "database/postgres/test")
	closeFunc := func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: repository,
		Tag:        tag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start postgres container")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("failure purging postgres container")
		}
	}

	// Expire never returns an error
	_ = resource.Expire(uint(expiry.Seconds()))

	databaseUrl := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user,
		password,
		resource.GetHostPort("5432/tcp"),
		dbname,
	)

	var db *sql.DB
	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", databaseUrl)
			if err != nil {
				return err
			}

			if err := db.Ping(); err != nil {
				db.Close()
				return err
			}
			return nil
		},
		retry.Limit(connectAttempts),
		retry.Backoff(backoff.Constant(connectInterval), connectInterval),
	)
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "timed out waiting for postgres container")
	}

	purge := closeFunc
	closeFunc = func() {
		db.Close()
		purge()
	}

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			return nil, closeFunc, errors.Wrap(err, "error applying schema")
		}
	}

	return db, closeFunc, nil
}
