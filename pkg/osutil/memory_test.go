package osutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCgroupMemoryLimit(t *testing.T) {
	dir := t.TempDir()

	for _, tc := range []struct {
		contents string
		expected uint64
		ok       bool
	}{
		{contents: "1073741824\n", expected: 1073741824, ok: true},
		{contents: "max\n"},
		{contents: "9223372036854771712\n"},
		{contents: "garbage"},
		{contents: "0"},
	} {
		location := filepath.Join(dir, "limit")
		assert.NoError(t, os.WriteFile(location, []byte(tc.contents), 0o600))

		limit, ok := readCgroupMemoryLimit(location)
		assert.Equal(t, tc.ok, ok, tc.contents)
		assert.Equal(t, tc.expected, limit, tc.contents)
	}

	_, ok := readCgroupMemoryLimit(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}

func TestGetTotalMemory(t *testing.T) {
	dir := t.TempDir()
	v1, v2 := cgroupV1MemoryLimitLocation, cgroupV2MemoryLimitLocation
	defer func() {
		cgroupV1MemoryLimitLocation, cgroupV2MemoryLimitLocation = v1, v2
	}()

	cgroupV1MemoryLimitLocation = filepath.Join(dir, "v1")
	cgroupV2MemoryLimitLocation = filepath.Join(dir, "v2")
	assert.NotZero(t, GetTotalMemory())

	assert.NoError(t, os.WriteFile(cgroupV2MemoryLimitLocation, []byte("4096\n"), 0o600))
	assert.EqualValues(t, 4096, GetTotalMemory())
}
