// Package journal keeps an append-only history of broadcast summaries in
// Pebble.
//
// Keyspace (byte-wise sortable):
//
//	journal/m                 last assigned sequence (8 bytes big-endian)
//	journal/e/{seq_be8}       encoded entry
//
// Each entry value is varint(headerLen) | header | payload | crc32c, where the
// header carries the append time in milliseconds and the payload is the JSON
// summary. Entries failing the checksum are skipped on read.
package journal
