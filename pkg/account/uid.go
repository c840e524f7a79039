package account

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// EncodeUserID encodes a user id for URL path embedding: the decimal string
// form of the id, base64 URL encoded without padding.
func EncodeUserID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUserID reverses EncodeUserID. The input arrives from untrusted URLs;
// any failure yields an error the caller folds into "not found".
func DecodeUserID(encoded string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("invalid user id encoding: %w", err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid user id: %d", id)
	}
	return id, nil
}
