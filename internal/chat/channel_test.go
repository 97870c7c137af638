package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveChannelIDIsSymmetric(t *testing.T) {
	assert.Equal(t, DeriveChannelID("alice", "bob"), DeriveChannelID("bob", "alice"))
}

func TestDeriveChannelIDOrdersLexicographically(t *testing.T) {
	assert.Equal(t, "alice_bob", DeriveChannelID("bob", "alice"))
	assert.Equal(t, "abc-1_abc-2", DeriveChannelID("abc-2", "abc-1"))
}

func TestDeriveChannelIDPanicsOnEqualIDs(t *testing.T) {
	assert.Panics(t, func() { DeriveChannelID("alice", "alice") })
}
