package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/pantry/internal/cli"
	"github.com/eleven-am/pantry/pkg/pantry"
)

// Set with -ldflags "-X main.commit=... -X main.date=...".
var (
	commit string
	date   string
)

func main() {
	pantry.SetBuildInfo(commit, date)

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
