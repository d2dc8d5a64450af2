package main

import (
	"os"

	"github.com/engramkit/engram/cmd/engram"
)

func main() {
	if err := engram.Execute(); err != nil {
		os.Exit(1)
	}
}
