package sandbox

import (
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"code":"let a = 1;","tests":""}`), 0)
	require.NoError(t, err)
	assert.Equal(t, Request{Code: "let a = 1;"}, req)

	_, err = ParseRequest([]byte(`{"code":"x"}`), 0)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)

	_, err = ParseRequest([]byte(`{"code":"0123456789","tests":""}`), 5)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
}

func TestFromWire(t *testing.T) {
	code, tests := "a", "b"

	_, err := FromWire(types.RunRequest{Code: &code}, 0)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)

	req, err := FromWire(types.RunRequest{Code: &code, Tests: &tests}, 0)
	require.NoError(t, err)
	assert.Equal(t, Request{Code: "a", Tests: "b"}, req)
}

func TestResponseShapes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		res := &Result{Outcome: OutcomeCompleted, Output: "out", Counters: Counters{Tests: 2, Passed: 1, Failed: 1}}
		data, err := sonic.Marshal(res.Response())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"output":"out","testCount":2,"passedCount":1,"failedCount":1}`, string(data))
	})

	t.Run("program error", func(t *testing.T) {
		res := &Result{Outcome: OutcomeProgramError, Error: "boom", Stack: "at x"}
		data, err := sonic.Marshal(res.Response())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":"boom","stack":"at x"}`, string(data))
	})

	t.Run("timeout carries empty stack", func(t *testing.T) {
		res := &Result{Outcome: OutcomeTimedOut, Error: "Timeout"}
		data, err := sonic.Marshal(res.Response())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":"Timeout","stack":""}`, string(data))
	})

	t.Run("rejected request", func(t *testing.T) {
		res := Rejected(errors.New("invalid request: tests is required"))
		data, err := sonic.Marshal(res.Response())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":"invalid request: tests is required"}`, string(data))
		assert.Equal(t, "invalid_request", res.Outcome.String())
	})
}
