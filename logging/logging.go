// Package logging points the standard logger at the right sink for each executable
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// Dir is where debug logs are written, relative to the working directory
var Dir = "logs"

// Setup configures the standard logger. With debug set, output goes to
// Dir/<name>.log and the open file is returned for the caller to close;
// otherwise logging is discarded and nil is returned.
func Setup(name string, debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}

	if err := os.MkdirAll(Dir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(Dir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return f
}

// Stderr sends log output to stderr, for headless tools
func Stderr() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)
}
