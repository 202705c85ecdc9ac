// Package cli provides the interactive studymatch command-line client.
//
// It wires configuration, the local cache, the HTTP API client and a REPL.
// When the server cannot be reached, history falls back to the messages
// cached from earlier sessions and the prompt shows the offline mode.
//
// Commands:
//   - signup / login / whoami / logout
//   - rooms, open <userId>, use <roomId>
//   - history, send <text>, follow
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
