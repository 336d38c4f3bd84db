// # cmd/importgraph/main.go
package main

import (
	"os"

	"importgraph/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
