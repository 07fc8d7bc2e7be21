// Package handler serves the operational HTTP endpoints of tokgate:
// liveness, readiness and a status summary.
package handler
