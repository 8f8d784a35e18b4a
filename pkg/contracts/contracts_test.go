package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeSwapsWhenPrimaryGreater(t *testing.T) {
	p := Canonicalize(99, 5, "ACTIVE", "DEBRIS")
	assert.Equal(t, uint32(5), p.Lo)
	assert.Equal(t, uint32(99), p.Hi)
	assert.Equal(t, "DEBRIS", p.LoGroup)
	assert.Equal(t, "ACTIVE", p.HiGroup)
	assert.True(t, p.Swapped)
}

func TestCanonicalizeNoSwapWhenAlreadyOrdered(t *testing.T) {
	p := Canonicalize(5, 99, "DEBRIS", "ACTIVE")
	assert.Equal(t, uint32(5), p.Lo)
	assert.Equal(t, uint32(99), p.Hi)
	assert.False(t, p.Swapped)
}

func TestBuildEventIDMatchesScenarioF(t *testing.T) {
	id := BuildEventID(5, 99, "2026-02-23T12:00:00Z")
	assert.Equal(t, "EVT-5-99-2026-02-23T12:00:00Z", id)
}

func TestSupportedSchemaVersionsAdvertisesCurrent(t *testing.T) {
	assert.True(t, SupportedSchemaVersions[SchemaVersion])
}
