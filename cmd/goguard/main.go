// Command goguard runs the reference login server and offers policy
// inspection helpers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
