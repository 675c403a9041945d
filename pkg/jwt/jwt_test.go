package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", 60)

	token, err := m.GenerateToken(42, "Ada", "ada@example.com", "https://img/ada.png")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "https://img/ada.png", claims.Image)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := NewManager("test-secret", -60)

	token, err := m.GenerateToken(1, "", "", "")
	require.NoError(t, err)

	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := NewManager("a", 60).GenerateToken(1, "", "", "")
	require.NoError(t, err)

	_, err = NewManager("b", 60).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsUserID_Invalid(t *testing.T) {
	c := &Claims{}
	c.Subject = "not-a-number"
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
