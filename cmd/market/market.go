package main

import (
	"github.com/prompthash/marketplace/cmd/market/cmd"
)

// Marketplace CLI
//
func main() {
	cmd.Execute()
}
