// Package router implements the Message Router.
//
// Every inbound event is first broadcast verbatim to all registered
// surfaces, then triggers a type-specific side effect: badge updates for
// task progress, durable persistence for browser state, a system
// notification for errors. Unknown event types are broadcast only, so a
// newer backend never breaks the relay.
package router
