// Package runtime wires storage and config into a single-node Palabra
// instance. It opens Pebble (and SQLite when selected), constructs the one
// subscriber Registry and the broadcast Journal every service shares, and
// exposes health checks.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	n, _ := rt.Registry().Count(context.Background())
package runtime
