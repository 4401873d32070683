package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
	pgutil "github.com/dao-treasury/dao-server/pkg/database/postgres"
)

const (
	tableName = "dao__core_project"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	ProjectId string `db:"project_id"`
	Multisig  string `db:"multisig"`
	CreateKey string `db:"create_key"`
	Creator   string `db:"creator"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(r *project.Record) (*model, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &model{
		ProjectId: r.ProjectId,
		Multisig:  r.Multisig,
		CreateKey: r.CreateKey,
		Creator:   r.Creator,
		CreatedAt: r.CreatedAt,
	}, nil
}

func fromModel(m *model) *project.Record {
	return &project.Record{
		Id:        uint64(m.Id.Int64),
		ProjectId: m.ProjectId,
		Multisig:  m.Multisig,
		CreateKey: m.CreateKey,
		Creator:   m.Creator,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(project_id, multisig, create_key, creator, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING
			id, project_id, multisig, create_key, creator, created_at`

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.ProjectId,
			m.Multisig,
			m.CreateKey,
			m.Creator,
			m.CreatedAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, project.ErrProjectExists)
	})
}

func dbGetByProject(ctx context.Context, db *sqlx.DB, projectId string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, project_id, multisig, create_key, creator, created_at
		FROM ` + tableName + `
		WHERE project_id = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, projectId)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, project.ErrProjectNotFound)
	}
	return res, nil
}

func dbGetByMultisig(ctx context.Context, db *sqlx.DB, multisig string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, project_id, multisig, create_key, creator, created_at
		FROM ` + tableName + `
		WHERE multisig = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, multisig)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, project.ErrProjectNotFound)
	}
	return res, nil
}
