// Package httpserver is the HTTP surface of tokgate.
//
// Routes:
//
//   - GET /health, GET /ready, GET /status: operational endpoints
//   - GET /metrics: Prometheus exposition, optionally behind a network ACL
//   - GET /socket: the WebSocket endpoint clients authenticate on
//
// Every route runs behind Recover, RequestID and AccessLog. A per-address
// rate limit applies to the operational routes when configured.
package httpserver
