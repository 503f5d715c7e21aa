// Command irgate validates semantic query IR against a database schema and
// compiles it to SQL.
package main

import (
	"os"

	"github.com/roach88/irgate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
