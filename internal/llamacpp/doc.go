// Package llamacpp drives the external llama.cpp binaries.
//
// It has three pieces:
//   - Exec runs a one-shot executable (generation, tokenization) under a
//     fixed timeout and returns its trimmed stdout.
//   - Client talks to a running llama-server over loopback HTTP.
//   - Server owns the llama-server child process and its lifecycle
//     (not_started, starting, ready, stopped, failed).
//
// Nothing here retries. Timeouts surface as ErrTimeout.
package llamacpp
