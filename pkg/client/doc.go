// Package client is the Go client for a testrunner server. Calls go through
// a rate limiter and a circuit breaker; busy servers are retried.
package client
