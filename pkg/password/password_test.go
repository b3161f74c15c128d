package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, salt, err := Hash([]byte("s3cret"))
	require.NoError(t, err)
	require.Len(t, salt, SaltSize)
	require.NotEmpty(t, hash)

	assert.True(t, Verify([]byte("s3cret"), hash, salt, 0, 5, true))
	assert.False(t, Verify([]byte("wrong"), hash, salt, 0, 5, true))
}

func TestHashUniqueSalt(t *testing.T) {
	hash1, salt1, err := Hash([]byte("same"))
	require.NoError(t, err)
	hash2, salt2, err := Hash([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)

	// Salts are not interchangeable.
	assert.False(t, Verify([]byte("same"), hash1, salt2, 0, 5, true))
}

func TestVerifyInactiveAccount(t *testing.T) {
	hash, salt, err := Hash([]byte("s3cret"))
	require.NoError(t, err)

	assert.False(t, Verify([]byte("s3cret"), hash, salt, 0, 5, false))
}

func TestVerifyLockoutBoundary(t *testing.T) {
	hash, salt, err := Hash([]byte("s3cret"))
	require.NoError(t, err)

	// With maxAttempts=5 the fifth attempt (four prior failures) is still
	// evaluated; the sixth is not.
	assert.True(t, Verify([]byte("s3cret"), hash, salt, 4, 5, true))
	assert.False(t, Verify([]byte("s3cret"), hash, salt, 5, 5, true))
	assert.False(t, Verify([]byte("s3cret"), hash, salt, 6, 5, true))
}
