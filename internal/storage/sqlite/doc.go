// Package sqlitestore opens the SQLite database used as the alternative
// subscriber registry backend and owns its schema migrations.
package sqlitestore
