package main

import (
	"os"

	"github.com/aliskhannn/rvt-exam/internal/delivery/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
