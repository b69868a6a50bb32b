package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/focusd/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "focusd failed: %v\n", err)
		os.Exit(1)
	}
}
