package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTextUTF8(t *testing.T) {
	src := "const msg = \"Division par zéro\";\n"

	got, err := DecodeText([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, got)

	got, err = DecodeText(append([]byte("\xef\xbb\xbf"), src...))
	require.NoError(t, err)
	assert.Equal(t, src, got, "BOM stripped")
}

func TestDecodeTextLatin1(t *testing.T) {
	// "é" is 0xE9 in every single-byte Latin charset chardet may pick
	src := []byte("// Les tests du caf\xe9 de la rue\n" +
		"function caf\xe9() { return \"Le caf\xe9 est servi, c'est d\xe9licieux et tr\xe8s chaud\"; }\n" +
		"console.log(\"R\xe9sultat: \" + caf\xe9());\n")

	got, err := DecodeText(src)
	require.NoError(t, err)
	assert.Contains(t, got, "café")
}

func TestDecodeTextRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

	_, err := DecodeText(png)
	assert.ErrorIs(t, err, ErrNotText)
	assert.True(t, IsText(nil))
}
