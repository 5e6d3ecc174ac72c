// Package main is the entry point of the segcoalesce CLI.
package main

import (
	"github.com/gwdetchar/segcoalesce/cmd"
	"github.com/gwdetchar/segcoalesce/internal/contract"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("segcoalesce", err)
	}
}
