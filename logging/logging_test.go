package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_DisabledByDefault(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	f := Setup("swarm", false)
	if f != nil {
		t.Error("Expected nil log file when debug=false")
		f.Close()
	}
	if log.Writer() != io.Discard {
		t.Errorf("Expected log output to be io.Discard, got %v", log.Writer())
	}
}

func TestSetup_EnabledWithDebug(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	old := Dir
	Dir = filepath.Join(t.TempDir(), "logs")
	defer func() { Dir = old }()

	f := Setup("swarm", true)
	if f == nil {
		t.Fatal("Expected non-nil log file when debug=true")
	}

	log.Println("tick message")
	f.Close()

	data, err := os.ReadFile(filepath.Join(Dir, "swarm.log"))
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), "tick message") {
		t.Errorf("Expected log file to contain message, got %q", data)
	}
}
