package sqlite

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers sqlite-vec as an auto-loadable extension for every new
	// mattn/go-sqlite3 connection.
	vec.Auto()
}
