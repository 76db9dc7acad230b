// Package snippets persists saved program/tests pairs attached to project
// issues in a sqlite database.
package snippets
