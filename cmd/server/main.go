// Package main is the entry point for the reconciliation server.
package main

import (
	"os"

	"github.com/ellvinib/lifeOS-sub004/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
