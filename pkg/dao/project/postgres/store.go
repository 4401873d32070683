package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres project.Store
func New(db *sql.DB) project.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements project.Store.Put
func (s *store) Put(ctx context.Context, record *project.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Get implements project.Store.Get
func (s *store) Get(ctx context.Context, projectId string) (*project.Record, error) {
	model, err := dbGetByProject(ctx, s.db, projectId)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByMultisig implements project.Store.GetByMultisig
func (s *store) GetByMultisig(ctx context.Context, multisig string) (*project.Record, error) {
	model, err := dbGetByMultisig(ctx, s.db, multisig)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
