package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	key := Key{Primary: "2025-12-28T18:00:00Z", ID: "abc123"}

	token := Encode("events|future||", key)
	decoded, err := Decode("events|future||", token)

	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestDecodeGarbage(t *testing.T) {
	for _, token := range []string{
		"",
		"not-base64!!!",
		"aGVsbG8",    // valid base64, not JSON
		"eyJmIjoxfQ", // JSON but wrong filter hash
		"%%%",
	} {
		_, err := Decode("events|||", token)
		assert.ErrorIs(t, err, ErrInvalid, "token %q", token)
	}
}

func TestFilterBinding(t *testing.T) {
	token := Encode("people|Oak Ridge|family||", Key{Primary: "miller", ID: "h1"})

	// Same scope decodes.
	_, err := Decode("people|Oak Ridge|family||", token)
	require.NoError(t, err)

	// A different filter combination rejects the token.
	_, err = Decode("people|Bayhill|family||", token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTamperedToken(t *testing.T) {
	token := Encode("events|now||", Key{Primary: "2025-01-01T00:00:00Z", ID: "e9"})
	tampered := "A" + token[1:]

	_, err := Decode("events|now||", tampered)
	assert.ErrorIs(t, err, ErrInvalid)
}
