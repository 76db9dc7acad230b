// Package http exposes the run, history and snippet endpoints over gin.
package http
