package main

import (
	"os"

	"graphmeta/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
