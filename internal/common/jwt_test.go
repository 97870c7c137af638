package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.PrincipalID)
	assert.Equal(t, "locketsync", claims.Issuer)
}

func TestValidTokenRejectsGarbage(t *testing.T) {
	_, err := ValidToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidToken("")
	assert.Error(t, err)
}
