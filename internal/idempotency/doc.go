// Package idempotency guarantees that a logical operation identified by a
// caller-supplied key takes effect at most once.
//
// A Guard records the payload hash each key was first used with. Later calls
// with the same key and hash are duplicates; the same key with another hash is
// a conflict and is never overwritten. Atomicity lives in the Store: the
// memory store serialises claims behind one mutex, sqlite uses a conditional
// upsert, redis uses SET NX, and the rpc store relies on a unique constraint
// inside the backend procedure.
//
// Records expire after the configured TTL (zero keeps them forever). A live
// record is never removed early: a memory store that reaches max_entries
// rejects new keys with ErrStoreFull instead.
package idempotency
