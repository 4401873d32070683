package memory

import (
	"testing"

	"github.com/dao-treasury/dao-server/pkg/dao/project/tests"
)

func TestProjectMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
