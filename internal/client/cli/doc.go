// Package cli provides the interactive PayKeeper command-line client.
//
// It wires configuration, the local store, the sync queue, the operation
// router, the local HTTP API and an interactive REPL. Typical flow: prompt
// for credentials, start the connectivity watcher and the sync scheduler in
// the background, and execute user commands. Every command works offline;
// changes made offline are replayed when the server becomes reachable.
//
// Key features:
//   - Register / Login (online with offline fallback) / Logout
//   - list, get, save, delete over any collection, plus named queries
//   - sync status, manual drain, quarantine retry and discard
//   - encrypted backup to object storage
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
