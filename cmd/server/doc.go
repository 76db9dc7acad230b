// Command server runs the testrunner service: the HTTP API, the /stream
// WebSocket endpoint and, when NATS_ENABLED is set, the NATS responder.
//
// Configuration comes from the environment (see internal/infrastructure/config),
// optionally seeded from a dotenv file. Flags override it:
//
//	./server -env .env -port 8000 -nats
//
// SIGINT and SIGTERM drain in-flight requests and close the sandbox pool.
package main
