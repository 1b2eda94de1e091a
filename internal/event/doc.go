// Package event defines the wire model shared by the relay components.
//
// Inbound events arrive as JSON frames on the persistent backend
// connection. Every frame carries a mandatory "type" field; the payload
// fields depend on the type. Locally-originated events (submission
// results, synthesized connection status) use the same envelope so that
// surfaces receive one uniform stream.
package event
