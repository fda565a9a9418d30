// Command automatrixctl runs administrative tasks against the automatrix
// database: schema migrations, catalog syncs, tier overrides and blog
// publishing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
