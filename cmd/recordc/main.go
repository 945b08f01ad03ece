// Package main provides the recordc CLI.
package main

import "github.com/mesh-intelligence/records/internal/cli"

func main() {
	cli.Execute()
}
