// Package state is the client-side state layer: the active session and its
// roster, the dashboard snapshot, the chat transcript and the report index.
//
// All state lives in one value guarded by a single mutex. Network calls are
// made without holding it. Results of calls that were issued for a session
// the user has since switched away from are discarded (see ErrSuperseded).
package state
