package cli

import (
	"bytes"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	if _, err := executeCommand("--help"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	for _, name := range []string{"config", "db"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()

	paths := [][]string{
		{"serve"},
		{"property", "list"}, {"property", "show"}, {"property", "add"}, {"property", "update"},
		{"property", "remove"}, {"property", "move"}, {"property", "locate"}, {"property", "compact"},
		{"type", "list"}, {"type", "add"}, {"type", "rename"}, {"type", "remove"}, {"type", "move"},
		{"inquiries"}, {"inquiries", "remove"},
		{"user", "add"}, {"user", "list"}, {"user", "remove"},
		{"login"}, {"logout"}, {"status"}, {"version"},
	}
	for _, p := range paths {
		cmd, rest, err := root.Find(p)
		if err != nil || len(rest) != 0 || cmd.Name() != p[len(p)-1] {
			t.Errorf("command %v not found (got %v, rest %v, err %v)", p, cmd.Name(), rest, err)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != Version+"\n" {
		t.Errorf("output = %q, want %q", out, Version+"\n")
	}
}
