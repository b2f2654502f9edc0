// Package link implements the element/event bridge between server-side
// elements and their browser-rendered counterparts.
//
// A Client represents one connected browser. Messages are JSON envelopes
// over an opaque Transport (a websocket in production, a simulated client
// in tests and demo mode).
//
// Message Types (Server → Client):
//   - create: render a new widget from props
//   - update: re-render an existing widget from current props
//   - call: invoke a named method on a widget, optionally awaiting a reply
//   - script: execute a script in the client runtime and await its value
//
// Message Types (Client → Server):
//   - reply: correlated result or error for a call/script
//   - event: widget event (selection, cell edit, ...) for a registered handler
//
// Calls are correlated by ULID. A caller that never awaits the Response gets
// fire-and-forget semantics: no result, no error. An awaited call resolves
// with the JSON-decoded result, fails with ErrTimeout on expiry, or fails
// with a RemoteError carrying the client's error message. A timed-out call
// only abandons the local wait; the client-side execution may still run to
// completion.
package link
