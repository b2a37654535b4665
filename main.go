package main

import (
	"fmt"
	"io"
	"os"

	"blogpress/service"
)

var exit = os.Exit

func main() {
	exit(RealMain(os.Args[1:]))
}

// RealMain runs the CLI and returns the process exit code.
func RealMain(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := service.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
