package token

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok := Encode(42, 1735689600)

	userID, expiry, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, int64(1735689600), expiry)
}

func TestEncodeIsURLSafe(t *testing.T) {
	tok := Encode(1920026281, 9999999999)
	assert.NotContains(t, tok, "+")
	assert.NotContains(t, tok, "/")
	assert.NotContains(t, tok, "=")
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"no separator", base64.RawURLEncoding.EncodeToString([]byte("42"))},
		{"too many parts", base64.RawURLEncoding.EncodeToString([]byte("1:2:3"))},
		{"non-numeric user", base64.RawURLEncoding.EncodeToString([]byte("abc:123"))},
		{"non-numeric expiry", base64.RawURLEncoding.EncodeToString([]byte("42:later"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.input)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeToleratesPadding(t *testing.T) {
	tok := base64.URLEncoding.EncodeToString([]byte("7:100"))

	userID, expiry, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, int64(100), expiry)
}
