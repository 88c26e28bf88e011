package main

import (
	"os"

	"github.com/BenjaminSRussell/simplefetch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout))
}
