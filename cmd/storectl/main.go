// Package main is the entry point for storectl.
package main

import (
	"os"

	"github.com/catalinamedinaleal/store/cmd/storectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
