package main

import (
	"os"

	"github.com/shv-ng/dir-diff/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
