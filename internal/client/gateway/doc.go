// Package gateway declares the typed contracts between the client core and
// its remote collaborators: the record store, file storage, realtime message
// feed, authentication and text generation.
//
// Implementations live in sub-packages (postgres, memory, s3store, gemini).
// Every call is a suspension point and takes a context; failures are
// returned, never swallowed, and are classified with the sentinel errors of
// this package.
package gateway
