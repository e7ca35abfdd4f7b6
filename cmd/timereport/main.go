// Command timereport seeds datasets and renders reports from the shell.
//
//	timereport seed --demo
//	timereport seed --file dataset.json
//	timereport report all --user demo --start 2025-01-01 --end 2025-12-31
//	timereport report csv --user demo --start 2025-01-01 --end 2025-01-31 --format xlsx --out jan.xlsx
//
// The store comes from the same environment as the server (DB_DRIVER,
// DB_PATH, DATABASE_URL); --driver and --db override it.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
