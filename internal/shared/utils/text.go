package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// ErrNotText is returned when uploaded content does not sniff as text
var ErrNotText = errors.New("content is not text")

// IsText reports whether data sniffs as a text format
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") || m.Is("application/json") {
			return true
		}
	}
	return false
}

// DecodeText returns data as UTF-8, transcoding from the detected charset
// when data is not already valid UTF-8.
func DecodeText(data []byte) (string, error) {
	if !IsText(data) {
		return "", ErrNotText
	}

	// Strip BOM
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	if utf8.Valid(data) {
		return string(data), nil
	}

	detected, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", fmt.Errorf("charset detection failed: %w", err)
	}

	enc, _ := charset.Lookup(strings.ToLower(detected.Charset))
	if enc == nil {
		return "", fmt.Errorf("unsupported charset %q", detected.Charset)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", detected.Charset, err)
	}
	return string(decoded), nil
}
