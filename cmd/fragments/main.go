package main

import (
	"os"

	"github.com/hashicorp-forge/fragments/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
