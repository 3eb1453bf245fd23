// Package services holds the stateful core of the UrbanNest client: the
// session store, the listing collection, bookmark state, conversation
// streams and the listing publication workflow.
//
// Every service is injected with its gateway collaborators and is safe for
// concurrent use. Remote calls are never made while a service lock is held.
package services
