/*
Package sandbox runs untrusted JavaScript programs together with their tests.

# Overview

Each run gets a fresh goja runtime that is discarded afterwards. The program
and the tests are concatenated into one function body, so tests see every
top-level declaration of the program. The harness API is passed in as
parameters of that function:

  - test(description, body)
  - assert, assertEquals, assertNotEquals, assertTrue, assertFalse
  - console.log

# Limits

Two independent bounds stop runaway code:

 1. A wall-clock deadline. When it fires the timeout response is posted at
    once and the runtime is interrupted.
 2. An iteration ceiling. Every recognised loop body is rewritten to call a
    guard first; the guard counts and aborts the run past the ceiling.

Both aborts are uncatchable from JavaScript. Exactly one Result is produced
per run.

# Usage

	engine := sandbox.NewEngine(sandbox.DefaultLimits())
	result := engine.Run(ctx, sandbox.Request{Code: code, Tests: tests})
	if !result.Success() {
		fmt.Println(result.Error)
	}

Pool bounds how many runs execute concurrently.
*/
package sandbox
