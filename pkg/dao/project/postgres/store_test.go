package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
	"github.com/dao-treasury/dao-server/pkg/dao/project/tests"

	postgrestest "github.com/dao-treasury/dao-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE dao__core_project(
			id SERIAL NOT NULL PRIMARY KEY,

			project_id TEXT NOT NULL,
			multisig TEXT NOT NULL,
			create_key TEXT NOT NULL,
			creator TEXT NOT NULL,

			created_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT dao__core_project__uniq__project_id UNIQUE (project_id),
			CONSTRAINT dao__core_project__uniq__multisig UNIQUE (multisig)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE dao__core_project;
	`
)

var (
	testStore project.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	if err := testPool.Client.Ping(); err != nil {
		log.WithError(err).Warn("Docker is unavailable, skipping postgres tests")
		os.Exit(0)
	}

	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool, tableCreate)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			log.WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestProjectPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func resetTestTables(db *sql.DB) error {
	if _, err := db.Exec(tableDestroy); err != nil {
		return err
	}
	_, err := db.Exec(tableCreate)
	return err
}
