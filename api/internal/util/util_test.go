package util

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper tag", "```JSON {\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n[1]\n```\n ", `[1]`},
		{"only opening", "```json\n{}", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	// "₹" is three bytes; cutting inside it backs off to the rune start
	assert.Equal(t, "a…", Truncate("a₹b", 2))
}

func TestSniffMime(t *testing.T) {
	assert.Equal(t, MimeJPEG, SniffMimeHTTP([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, MimePNG, SniffMimeHTTP([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}))
	assert.Equal(t, MimePDF, SniffMimeHTTP([]byte("%PDF-1.7\n")))
	assert.Equal(t, "image/tiff", SniffMimeHTTP([]byte("II*\x00rest")))

	assert.Equal(t, MimePDF, MimeForFile("Bill.PDF", []byte{0xFF, 0xD8}))
	assert.Equal(t, MimeJPEG, MimeForFile("bill.jpg", []byte{0xFF, 0xD8, 0xFF}))
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	raw := []byte("hello bill")
	enc := base64.StdEncoding.EncodeToString(raw)

	b, mime, err := DecodeBase64MaybeDataURL(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, b)
	assert.Empty(t, mime)

	b, mime, err = DecodeBase64MaybeDataURL(MakeDataURL("image/png", enc))
	require.NoError(t, err)
	assert.Equal(t, raw, b)
	assert.Equal(t, "image/png", mime)

	_, _, err = DecodeBase64MaybeDataURL("!!not base64!!")
	assert.Error(t, err)
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "application/pdf", PickMIME(" application/pdf ", "image/png", nil))
	assert.Equal(t, "image/png", PickMIME("", "image/png", nil))
	assert.Equal(t, MimePDF, PickMIME("", "", []byte("%PDF-1.4")))
	assert.Equal(t, MimeJPEG, PickMIME("", "", nil))
}

func TestSHA256Hex(t *testing.T) {
	h := SHA256Hex([]byte("abc"))
	assert.Len(t, h, 64)
	assert.True(t, strings.HasPrefix(h, "ba7816bf"))
}
