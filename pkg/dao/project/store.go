package project

import (
	"context"
	"errors"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already has a multisig")
)

type Store interface {
	// Put saves a new project binding. ErrProjectExists is returned when the
	// project, or the multisig, is already bound.
	Put(ctx context.Context, record *Record) error

	// Get gets the binding for a project
	Get(ctx context.Context, projectId string) (*Record, error)

	// GetByMultisig gets the binding for a multisig address
	GetByMultisig(ctx context.Context, multisig string) (*Record, error)
}
