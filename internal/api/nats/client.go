package nats

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/tracing"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

// Request sends one run request over nc and waits for the reply. ctx must
// carry a deadline.
func Request(ctx context.Context, nc *nats.Conn, subject string, req types.RunRequest, compress bool) (types.RunResponse, string, error) {
	header, body, err := encodeBody(req, compress)
	if err != nil {
		return types.RunResponse{}, "", err
	}
	tracing.Inject(ctx, header)

	msg := nats.NewMsg(subject)
	msg.Header = header
	msg.Data = body

	reply, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return types.RunResponse{}, "", fmt.Errorf("request %s: %w", subject, err)
	}

	data, err := decodeBody(reply.Header, reply.Data)
	if err != nil {
		return types.RunResponse{}, "", err
	}
	var resp types.RunResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return types.RunResponse{}, "", fmt.Errorf("decode reply: %w", err)
	}
	return resp, reply.Header.Get(RunIDHeader), nil
}
