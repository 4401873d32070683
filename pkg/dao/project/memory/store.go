package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
)

type store struct {
	mu      sync.Mutex
	records []*project.Record
	last    uint64
}

// New returns a new in memory project.Store
func New() project.Store {
	return &store{}
}

// Put implements project.Store.Put
func (s *store) Put(_ context.Context, data *project.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByProject(data.ProjectId) != nil || s.findByMultisig(data.Multisig) != nil {
		return project.ErrProjectExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)
	return nil
}

// Get implements project.Store.Get
func (s *store) Get(_ context.Context, projectId string) (*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByProject(projectId)
	if item == nil {
		return nil, project.ErrProjectNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetByMultisig implements project.Store.GetByMultisig
func (s *store) GetByMultisig(_ context.Context, multisig string) (*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByMultisig(multisig)
	if item == nil {
		return nil, project.ErrProjectNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

func (s *store) findByProject(projectId string) *project.Record {
	for _, item := range s.records {
		if item.ProjectId == projectId {
			return item
		}
	}
	return nil
}

func (s *store) findByMultisig(multisig string) *project.Record {
	for _, item := range s.records {
		if item.Multisig == multisig {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
