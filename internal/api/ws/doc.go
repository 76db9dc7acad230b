// Package ws serves run requests over a WebSocket at /stream. Each text
// frame is one request and gets one reply frame.
package ws
