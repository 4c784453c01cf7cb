// The main package for the specsync executable.
package main

import (
	"github.com/telcokit/specsync/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
