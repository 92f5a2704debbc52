// Package main provides the semforge binary entry point.
// Semforge validates structured planning artifacts, applies approved
// scaffold plans into real project trees, and keeps generated projects in
// sync with their upstream template baseline.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/c360studio/semforge/commands"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semforge"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(commands.ExitCode(err))
	}
}
