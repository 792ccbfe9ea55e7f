package autostart

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestCleanArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "autostart flag",
			args: []string{"/usr/bin/autosort", "track", "/dl", "--autostart", "--recursive"},
			want: []string{"/usr/bin/autosort", "track", "/dl", "--recursive"},
		},
		{
			name: "verbosity flags with separate values",
			args: []string{"/usr/bin/autosort", "track", "/dl", "--log-level", "debug", "--log-file", "/tmp/a.log", "--autostart"},
			want: []string{"/usr/bin/autosort", "track", "/dl"},
		},
		{
			name: "verbosity flags with equals values",
			args: []string{"/usr/bin/autosort", "--log-format=json", "track", "/dl", "--autostart"},
			want: []string{"/usr/bin/autosort", "track", "/dl"},
		},
	}

	for _, tc := range cases {
		got := CleanArgs(tc.args)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: CleanArgs = %v, want %v", tc.name, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: CleanArgs = %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}

func TestInstallUninstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on XDG/LaunchAgent layout")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	// A relative invocation must still produce an entry that launches at
	// login, so args[0] is replaced with the resolved executable.
	path, err := Install([]string{"./autosort", "track", "/dl", "--autostart", "--log-level", "debug"})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "--autostart") {
		t.Error("entry re-registers itself at every login")
	}
	if strings.Contains(content, "--log-level") {
		t.Error("entry carries one-shot verbosity flags")
	}
	if strings.Contains(content, "./autosort") {
		t.Error("entry uses the relative invocation path")
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, exe) {
		t.Errorf("entry does not use the resolved executable %s:\n%s", exe, content)
	}
	if !strings.Contains(content, "track /dl") && !strings.Contains(content, "<string>/dl</string>") {
		t.Errorf("entry does not re-invoke the track command:\n%s", content)
	}

	removed, err := Uninstall()
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if removed != path {
		t.Errorf("Uninstall path = %q, want %q", removed, path)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("entry still present after Uninstall")
	}

	// Uninstalling again is a no-op.
	if _, err := Uninstall(); err != nil {
		t.Errorf("second Uninstall: %v", err)
	}
}
