// # cmd/msindex/main.go
package main

import (
	"os"

	"msindex/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
