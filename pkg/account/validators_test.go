package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "ashley", NormalizeUsername("  Ashley "))
	assert.Equal(t, "user_1-2", NormalizeUsername("USER_1-2"))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"simple", "ashley", true},
		{"digits and separators", "user_1-2", true},
		{"minimum length", "abc", true},
		{"too short", "ab", false},
		{"too long", "a1b2c3d4e5a1b2c3d4e5a1b2c3d4e5a1b2c3d4e5x", false},
		{"space", "user name", false},
		{"dot", "user.name", false},
		{"triple repeat", "aaabc", false},
		{"triple repeat in middle", "abcccd", false},
		{"double repeat is fine", "aabbc", true},
		{"reserved admin", "admin", false},
		{"reserved root", "root", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidUsername)
			}
		})
	}
}

func TestUserIDEncoding(t *testing.T) {
	for _, id := range []int64{1, 7, 42, 123456789} {
		encoded := EncodeUserID(id)
		decoded, err := DecodeUserID(encoded)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}

	// The encoding is stable, not random: id 7 is the decimal string "7".
	assert.Equal(t, "Nw", EncodeUserID(7))
}

func TestDecodeUserIDRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!!"},
		{"not a number", "YWJj"},
		{"zero", "MA"},
		{"negative", "LTU"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUserID(tt.encoded)
			assert.Error(t, err)
		})
	}
}
