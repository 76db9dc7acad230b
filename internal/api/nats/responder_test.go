package nats

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/snappy"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

func newTestResponder(t *testing.T) (*Responder, *testrun.Manager) {
	t.Helper()
	pool := sandbox.NewPool(sandbox.NewEngine(sandbox.DefaultLimits()), 1, time.Second)
	t.Cleanup(func() { pool.Close() })
	runs := testrun.NewManager(pool, 10, nil)
	return NewResponder(Config{Subject: "harness.run", Queue: "harness"}, runs, nil), runs
}

func decodeReply(t *testing.T, header nats.Header, body []byte) types.RunResponse {
	t.Helper()
	data, err := decodeBody(header, body)
	require.NoError(t, err)
	var resp types.RunResponse
	require.NoError(t, sonic.Unmarshal(data, &resp))
	return resp
}

func TestProcessPlain(t *testing.T) {
	r, runs := newTestResponder(t)

	header, body := r.process(context.Background(), nil,
		[]byte(`{"code":"const a = 2;","tests":"test('a', () => assertEquals(a, 2));"}`))

	assert.Empty(t, header.Get(EncodingHeader))
	resp := decodeReply(t, header, body)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, *resp.PassedCount)

	record, ok := runs.Get(header.Get(RunIDHeader))
	require.True(t, ok)
	assert.Equal(t, testrun.SourceNATS, record.Source)
}

func TestProcessSnappy(t *testing.T) {
	r, _ := newTestResponder(t)

	in := nats.Header{}
	in.Set(EncodingHeader, "snappy")
	payload := snappy.Encode(nil, []byte(`{"code":"","tests":"test('f', () => assertFalse(true));"}`))

	header, body := r.process(context.Background(), in, payload)

	assert.Equal(t, "snappy", header.Get(EncodingHeader))
	resp := decodeReply(t, header, body)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, *resp.FailedCount)
}

func TestProcessInvalid(t *testing.T) {
	r, _ := newTestResponder(t)

	tests := []struct {
		name   string
		header nats.Header
		data   []byte
	}{
		{"bad json", nil, []byte(`{`)},
		{"missing field", nil, []byte(`{"code":""}`)},
		{"corrupt snappy", nats.Header{EncodingHeader: []string{"snappy"}}, []byte{0xff, 0xff, 0xff}},
		{"unknown encoding", nats.Header{EncodingHeader: []string{"gzip"}}, []byte(`{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body := r.process(context.Background(), tt.header, tt.data)
			data := body
			if header.Get(EncodingHeader) == "snappy" {
				var err error
				data, err = snappy.Decode(nil, body)
				require.NoError(t, err)
			}

			var resp types.RunResponse
			require.NoError(t, sonic.Unmarshal(data, &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Contains(t, *resp.Error, "invalid request")
			assert.NotEmpty(t, header.Get(RunIDHeader))
		})
	}
}

func TestCloseWithoutStart(t *testing.T) {
	r, _ := newTestResponder(t)
	assert.NoError(t, r.Close())
}
