package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUUIDIsUnique(t *testing.T) {
	fs := New(nil, Options{})
	seen := make(map[string]struct{}, 1000)

	for range 1000 {
		id := fs.newUUID()
		assert.Len(t, id, 36)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, 1000)
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "file:2025/3/4/abc", recordKey(2025, 3, 4, "abc"))
}
