package main

import (
	"os"

	"github.com/nfse-labs/nfse-tracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
