// Package nats serves run requests over NATS request/reply. Requests may be
// snappy-compressed; replies use the encoding of the request.
package nats
