// Command snapmig inspects and migrates entity store snapshots.
//
// This build carries no application migration steps; it inspects, plans,
// exports and imports stores and stamps versions. Applications build their
// own binary with cli.WithSteps.
package main

import (
	"os"

	"github.com/mesh-intelligence/snapmig/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
