// The main package for the webclipper executable.
package main

import (
	"github.com/JakeFAU/webclipper/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
