// Package cli provides the interactive UrbanNest command-line client.
//
// It wires configuration, the remote backend (Postgres plus S3, or the
// in-memory demo backend), the local session store, the Gemini assistant
// and an interactive REPL over the services package.
//
// Key features:
//   - Register / Login / Logout with a persisted session
//   - Browse, search and filter listings; bookmark them
//   - Owner dashboard: publish, edit and delete listings
//   - Inbox and live per-listing chat
//   - Assistant questions and generated listing descriptions
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
