package main

import (
	"context"

	"github.com/compute-blade-community/pixelbridge/pkg/fault"
)

var (
	Version string
	Commit  string
	Date    string
)

func main() {
	defer fault.Recover()

	if err := rootCmd.Execute(); err != nil {
		fault.Halt(context.Background(), err)
	}
}
