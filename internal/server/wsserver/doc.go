// Package wsserver accepts WebSocket connections and hands them to the
// authentication gate.
//
// Handshake credentials travel as HTTP headers on the upgrade request, so
// the gate runs right after the upgrade. A registered connection stays open
// with a ping/pong keepalive; incoming messages are counted and logged but
// not routed. When the connection ends, the session is released and its
// reconnection ticket becomes redeemable.
package wsserver
