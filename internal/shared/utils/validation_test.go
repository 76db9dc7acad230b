package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRunRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"code":"let a = 1","tests":""}`},
		{name: "extra fields allowed", body: `{"code":"","tests":"","lang":"js"}`},
		{name: "missing tests", body: `{"code":"x"}`, wantErr: "tests is required"},
		{name: "missing code", body: `{"tests":"x"}`, wantErr: "code is required"},
		{name: "wrong type", body: `{"code":1,"tests":""}`, wantErr: "invalid request"},
		{name: "not an object", body: `[]`, wantErr: "invalid request"},
		{name: "malformed json", body: `{"code":`, wantErr: "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunRequest([]byte(tt.body))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRunRequestSize(t *testing.T) {
	big := `{"code":"` + strings.Repeat("a", MaxJSONSize) + `","tests":""}`
	err := ValidateRunRequest([]byte(big))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource("", "code", 10))
	assert.NoError(t, ValidateSource("0123456789", "code", 10))
	assert.ErrorIs(t, ValidateSource("0123456789a", "code", 10), ErrInvalidRequest)
	assert.ErrorIs(t, ValidateSource("\xff\xfe", "tests", 10), ErrInvalidRequest)
	assert.NoError(t, ValidateSource(strings.Repeat("a", MaxSourceSize), "code", 0))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("proj-1_a", "projectId", true))
	assert.Error(t, ValidateID("", "projectId", true))
	assert.NoError(t, ValidateID("", "projectId", false))
	assert.Error(t, ValidateID("a/b", "projectId", true))
	assert.Error(t, ValidateID(strings.Repeat("a", MaxIDLength+1), "projectId", true))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("ab", "c")
	b := Fingerprint("a", "bc")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint("ab", "c"))
	assert.Equal(t, a[:8], ShortHash(a))
	assert.Equal(t, "abc", ShortHash("abc"))
}
