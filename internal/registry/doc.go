// Package registry is the durable set of push subscriptions keyed by endpoint.
//
// The Registry enforces endpoint uniqueness with a conditional insert in the
// backing Store, so concurrent registrations of the same endpoint observe
// exactly one success. Two stores are provided: PebbleStore (default) and
// SQLStore on SQLite.
//
// List returns a restartable iterator. Each range over it takes a fresh scan
// that tolerates concurrent inserts and removals: a record removed mid-scan is
// either yielded or not, never half-read.
package registry
