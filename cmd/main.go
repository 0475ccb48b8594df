package main

import (
	"os"

	"github.com/soundprediction/go-relcheck/cmd/relcheck"
)

func main() {
	if err := relcheck.Execute(); err != nil {
		os.Exit(1)
	}
}
