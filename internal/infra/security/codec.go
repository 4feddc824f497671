package security

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidTokenEncoding indicates a transport token is not valid URL-safe
// base64 and cannot be decoded.
var ErrInvalidTokenEncoding = errors.New("security: invalid token encoding")

// EncodeTransportToken converts raw one-time token bytes into the URL-safe
// form embedded in notification links. The transform is a pure re-encoding;
// the token's security comes from its own entropy.
func EncodeTransportToken(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeTransportToken reverses EncodeTransportToken.
func DecodeTransportToken(encoded string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenEncoding, err)
	}
	return raw, nil
}
