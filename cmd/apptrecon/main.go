// Command apptrecon finds and removes duplicate appointments and
// cross-checks per-day appointment counts.
package main

import (
	"os"

	"github.com/roach88/apptrecon/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
