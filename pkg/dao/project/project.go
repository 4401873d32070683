package project

import (
	"errors"
	"time"
)

// Record binds a project to the multisig that holds its treasury.
type Record struct {
	Id uint64

	ProjectId string

	// Base58 encoded multisig and create key addresses
	Multisig  string
	CreateKey string

	// Base58 encoded administrator that created the multisig
	Creator string

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.ProjectId) == 0 {
		return errors.New("project id is required")
	}

	if len(r.Multisig) == 0 {
		return errors.New("multisig is required")
	}

	if len(r.CreateKey) == 0 {
		return errors.New("create key is required")
	}

	if len(r.Creator) == 0 {
		return errors.New("creator is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id:        r.Id,
		ProjectId: r.ProjectId,
		Multisig:  r.Multisig,
		CreateKey: r.CreateKey,
		Creator:   r.Creator,
		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.ProjectId = r.ProjectId
	dst.Multisig = r.Multisig
	dst.CreateKey = r.CreateKey
	dst.Creator = r.Creator
	dst.CreatedAt = r.CreatedAt
}
