// Package output formats tokgate-cli results.
//
// Three formats are supported: aligned key/value text for people, and JSON
// or YAML for scripts.
package output
