package main

import (
	"fmt"
	"log"
	"os"

	"verigo/cmd"
	"verigo/runner"
)

func main() {
	args := os.Args[1:]
	name := "run"
	if len(args) > 0 {
		name = args[0]
		args = args[1:]
	}

	switch name {
	case "run":
		configPath := runner.ConfigFileName
		if len(args) > 0 {
			configPath = args[0]
		}
		os.Exit(cmd.Run(configPath))
	case "serve":
		if err := cmd.Serve(); err != nil {
			log.Fatalf("serve failed: %v", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", name)
		fmt.Fprintln(os.Stderr, "usage: verigo [run [config] | serve]")
		os.Exit(2)
	}
}
