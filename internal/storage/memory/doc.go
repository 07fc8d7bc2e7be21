// Package memory provides in-memory storage for tokgate.
//
// It holds two stores:
//
//   - TicketStore: reconnection tickets indexed by ID and by expiry, with a
//     periodic sweep that evicts due tickets
//   - UserDirectory: accounts ordered by username
//
// Thread Safety:
//
// TicketStore serializes Register, Verify and Sweep under one mutex so its
// two indexes change together. UserDirectory uses a read/write lock.
package memory
