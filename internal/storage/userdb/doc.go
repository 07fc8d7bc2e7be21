// Package userdb provides a Badger-backed user directory for tokgate.
//
// Users are stored as JSON under the key prefix "user/" so the directory
// survives restarts. A background loop runs value log garbage collection
// on disk-backed databases.
package userdb
