package main

import (
	"fmt"
	"os"

	"firestige.xyz/netcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
