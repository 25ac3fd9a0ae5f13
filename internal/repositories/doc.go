// Package repositories implements local SQLite persistence for the teltube client.
//
// Key Implementations:
//   - [SQLiteStore] : a durable key/value table ([KeyValueStore]) with atomic multi-key writes
//   - [CredentialRepository] : the persisted session, always written and cleared as an identity+token pair
//   - [CatalogRepository] : the last fetched catalog listing per scope, used as a read-only fallback
//
// The credential repository never propagates storage failures from Load: an unavailable or corrupt
// store reads as "no session", so a broken database degrades to a logged-out client.
package repositories
