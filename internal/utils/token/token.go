package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDecode is returned for any malformed token. The encoding is a plain
// reversible transform with no signature, so a decoded pair must never be
// trusted beyond matching it against server-side state.
var ErrDecode = errors.New("token: malformed token")

// Encode packs (userID, expiry) into a URL-safe opaque string.
func Encode(userID, expiry int64) string {
	raw := fmt.Sprintf("%d:%d", userID, expiry)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode unpacks a token produced by Encode. Any malformed input yields
// ErrDecode; Decode never panics.
func Decode(s string) (userID, expiry int64, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		// Tolerate padded variants produced by other encoders.
		raw, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return 0, 0, ErrDecode
		}
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 2 {
		return 0, 0, ErrDecode
	}
	userID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, ErrDecode
	}
	expiry, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, ErrDecode
	}
	return userID, expiry, nil
}
