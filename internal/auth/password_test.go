package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", digest)
	assert.True(t, h.Compare(digest, "Passw0rd!"))
	assert.False(t, h.Compare(digest, "passw0rd!"))
}

func TestHasher_LongPasswords(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := "Aa1!" + strings.Repeat("x", 120)

	digest, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Compare(digest, long))
	// Differences past byte 72 still matter.
	assert.False(t, h.Compare(digest, long[:len(long)-1]+"y"))
}

func TestHasher_CompatibleWithPlainBcrypt(t *testing.T) {
	digest, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, NewHasher(bcrypt.MinCost).Compare(string(digest), "Passw0rd!"))
}
