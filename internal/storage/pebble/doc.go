// Package pebblestore wraps Pebble with an fsync policy, snapshot prefix
// scans and the conditional writes (SetIfAbsent, DeleteIfPresent) the
// subscriber registry relies on.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	created, _ := db.SetIfAbsent([]byte("sub/https://push.example/abc"), value)
//	_ = db.ScanPrefix([]byte("sub/"), func(k, v []byte) error { return nil })
package pebblestore
