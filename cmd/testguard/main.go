// Package main is the entry point for the testguard application
package main

import (
	"github.com/testguard/testguard/cmd"
)

func main() {
	cmd.Execute()
}
