package main

import (
	"os"

	"github.com/feichai0017/document-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
