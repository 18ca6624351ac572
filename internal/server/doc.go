// Package server exposes the counseling orchestrator over HTTP.
//
// All routes live under /api:
//
//	POST /api/init                       start a fresh counseling history
//	POST /api/load                       load a record by id, or resume the latest
//	POST /api/chat                       process one patient utterance
//	GET  /api/status                     orchestrator state
//	GET  /api/records                    list persisted record ids
//	GET  /api/configs                    module bindings and provider ids
//	POST /api/sessions/{index}/evaluate  score a closed session
//	GET  /api/events                     SSE stream of bus events
//
// Error responses are JSON envelopes with a stable code. Model and
// classification failures come back as 502 MODEL_FAILURE with the failing
// step named in the details; the client may retry the same utterance, since
// an aborted turn commits no state.
package server
