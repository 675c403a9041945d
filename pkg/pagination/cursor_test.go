package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := EncodeCursor(CursorPayload{LastID: 1234})
	assert.NotEmpty(t, c)

	p, err := DecodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), p.LastID)
}

func TestDecodeCursor_Empty(t *testing.T) {
	p, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Zero(t, p.LastID)
	assert.Equal(t, "", EncodeCursor(CursorPayload{}))
}

func TestDecodeCursor_Garbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MessageDefaultLimit, ClampLimit(0))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MessageMaxLimit, ClampLimit(5000))
}
