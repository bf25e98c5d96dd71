package cache_test

import (
	"testing"

	"smartTask/internal/cache"
	"smartTask/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys_OwnerScoped(t *testing.T) {
	owner := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	taskID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t,
		"tasks:11111111-1111-1111-1111-111111111111:task:22222222-2222-2222-2222-222222222222",
		cache.TaskKey(owner, taskID))

	assert.Equal(t,
		"tasks:11111111-1111-1111-1111-111111111111:list:abc",
		cache.ListKey(owner, "abc"))

	assert.Equal(t,
		"tasks:11111111-1111-1111-1111-111111111111:list:*",
		cache.OwnerListPattern(owner))

	assert.Equal(t,
		"tasks:11111111-1111-1111-1111-111111111111:*",
		cache.TaskKeyPattern(owner))
}

func TestFingerprint_StableForEqualSpecs(t *testing.T) {
	status := task.StatusPending
	first := task.ListSpec{Status: &status, Search: "отчёт", Limit: 10}
	second := task.ListSpec{Status: &status, Search: "отчёт", Limit: 10}

	assert.Equal(t, cache.Fingerprint(first), cache.Fingerprint(second))
}

func TestFingerprint_DiffersForDifferentSpecs(t *testing.T) {
	pending := task.StatusPending
	done := task.StatusDone

	base := task.ListSpec{Status: &pending}
	other := task.ListSpec{Status: &done}
	withLimit := task.ListSpec{Status: &pending, Limit: 5}

	assert.NotEqual(t, cache.Fingerprint(base), cache.Fingerprint(other))
	assert.NotEqual(t, cache.Fingerprint(base), cache.Fingerprint(withLimit))
}
