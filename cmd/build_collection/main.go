package main

import (
	"fmt"
	"os"

	"github.com/cavenel/go-deepzoom/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
