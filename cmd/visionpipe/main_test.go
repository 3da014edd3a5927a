package main

import (
	"bytes"
	"testing"
)

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help execution failed: %v", err)
	}
	for _, name := range []string{"add", "videos", "summary", "status", "reset", "delete"} {
		if !bytes.Contains(out.Bytes(), []byte(name)) {
			t.Fatalf("help output missing %q command:\n%s", name, out.String())
		}
	}
}

func TestFormatTimecode(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{9.7, "0:09"},
		{75, "1:15"},
		{3600, "60:00"},
	}
	for _, tc := range cases {
		if got := formatTimecode(tc.seconds); got != tc.want {
			t.Fatalf("formatTimecode(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	if got := formatScore(0.8567); got != "0.86" {
		t.Fatalf("formatScore = %q", got)
	}
}
