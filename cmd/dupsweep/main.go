// Package main provides the entry point for the dupsweep duplicate finder CLI.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
