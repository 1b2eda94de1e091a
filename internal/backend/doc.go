// Package backend implements the Connection Manager: the single
// persistent WebSocket connection to the task-execution backend.
//
// The manager owns at most one live connection at a time. Lifecycle is an
// explicit state machine (disconnected -> connecting -> connected ->
// disconnected). Closure triggers automatic reconnection with linear
// backoff up to a fixed ceiling; after that, a manual Connect call is
// required. Inbound frames are parsed into events; malformed frames are
// logged and dropped before they can reach the router.
package backend
