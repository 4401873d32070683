package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/dao/project"
)

func RunTests(t *testing.T, s project.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s project.Store){
		testHappyPath,
		testUniqueness,
		testInvalidRecord,
		testConcurrentPut,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s project.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "project-1")
		assert.Equal(t, project.ErrProjectNotFound, err)

		_, err = s.GetByMultisig(ctx, "multisig-1")
		assert.Equal(t, project.ErrProjectNotFound, err)

		expected := &project.Record{
			ProjectId: "project-1",
			Multisig:  "multisig-1",
			CreateKey: "create-key-1",
			Creator:   "creator",
		}
		cloned := expected.Clone()

		start := time.Now().Add(-time.Second)
		require.NoError(t, s.Put(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)
		assert.True(t, expected.CreatedAt.After(start))

		actual, err := s.Get(ctx, "project-1")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.Equal(t, expected.Id, actual.Id)

		actual, err = s.GetByMultisig(ctx, "multisig-1")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		// Returned records are copies
		actual.Multisig = "modified"
		actual, err = s.Get(ctx, "project-1")
		require.NoError(t, err)
		assert.Equal(t, "multisig-1", actual.Multisig)
	})
}

func testUniqueness(t *testing.T, s project.Store) {
	t.Run("testUniqueness", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, &project.Record{
			ProjectId: "project-1",
			Multisig:  "multisig-1",
			CreateKey: "create-key-1",
			Creator:   "creator",
		}))

		assert.Equal(t, project.ErrProjectExists, s.Put(ctx, &project.Record{
			ProjectId: "project-1",
			Multisig:  "multisig-2",
			CreateKey: "create-key-2",
			Creator:   "creator",
		}))

		assert.Equal(t, project.ErrProjectExists, s.Put(ctx, &project.Record{
			ProjectId: "project-2",
			Multisig:  "multisig-1",
			CreateKey: "create-key-2",
			Creator:   "creator",
		}))

		require.NoError(t, s.Put(ctx, &project.Record{
			ProjectId: "project-2",
			Multisig:  "multisig-2",
			CreateKey: "create-key-2",
			Creator:   "creator",
		}))

		actual, err := s.Get(ctx, "project-1")
		require.NoError(t, err)
		assert.Equal(t, "multisig-1", actual.Multisig)

		actual, err = s.Get(ctx, "project-2")
		require.NoError(t, err)
		assert.Equal(t, "multisig-2", actual.Multisig)
	})
}

func testInvalidRecord(t *testing.T, s project.Store) {
	t.Run("testInvalidRecord", func(t *testing.T) {
		ctx := context.Background()

		for _, record := range []*project.Record{
			{Multisig: "multisig", CreateKey: "create-key", Creator: "creator"},
			{ProjectId: "project", CreateKey: "create-key", Creator: "creator"},
			{ProjectId: "project", Multisig: "multisig", Creator: "creator"},
			{ProjectId: "project", Multisig: "multisig", CreateKey: "create-key"},
		} {
			assert.Error(t, s.Put(ctx, record))
		}

		_, err := s.Get(ctx, "project")
		assert.Equal(t, project.ErrProjectNotFound, err)
	})
}

func testConcurrentPut(t *testing.T, s project.Store) {
	t.Run("testConcurrentPut", func(t *testing.T) {
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		var successes, conflicts int
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := s.Put(ctx, &project.Record{
					ProjectId: "project-1",
					Multisig:  "multisig-1",
					CreateKey: "create-key-1",
					Creator:   "creator",
				})

				mu.Lock()
				defer mu.Unlock()
				switch err {
				case nil:
					successes++
				case project.ErrProjectExists:
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 15, conflicts)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *project.Record) {
	assert.Equal(t, obj1.ProjectId, obj2.ProjectId)
	assert.Equal(t, obj1.Multisig, obj2.Multisig)
	assert.Equal(t, obj1.CreateKey, obj2.CreateKey)
	assert.Equal(t, obj1.Creator, obj2.Creator)
}
