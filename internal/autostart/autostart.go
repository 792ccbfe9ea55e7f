// Package autostart registers the running track command to launch at login,
// in the platform's native way: an XDG autostart desktop entry on Linux, a
// LaunchAgent on macOS, and a Startup-folder batch file on Windows.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const entryName = "autosort"

// strippedFlags are dropped from the re-invocation along with their values:
// --autostart so the entry does not re-register itself on every boot, and
// the verbosity flags so a login launch logs at the configured defaults.
var strippedFlags = map[string]bool{
	"--autostart":  true,
	"--log-level":  false,
	"--log-format": false,
	"--log-file":   false,
}

// CleanArgs strips the --autostart flag and the one-shot verbosity flags
// from a command line before it is written into a startup entry.
func CleanArgs(args []string) []string {
	cleaned := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if boolFlag, ok := strippedFlags[arg]; ok {
			if !boolFlag {
				i++ // skip the flag's value
			}
			continue
		}
		if eq := strings.IndexByte(arg, '='); eq > 0 {
			if _, ok := strippedFlags[arg[:eq]]; ok {
				continue
			}
		}
		cleaned = append(cleaned, arg)
	}
	return cleaned
}

// EntryPath returns where the startup entry lives on this platform.
func EntryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA not set")
		}
		return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup", entryName+".bat"), nil
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", "io."+entryName+".plist"), nil
	default:
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			configDir = filepath.Join(home, ".config")
		}
		return filepath.Join(configDir, "autostart", entryName+".desktop"), nil
	}
}

// Install writes a startup entry re-invoking args at login and returns the
// entry's path. args is the full command line including the executable;
// args[0] is replaced with the resolved executable path so an entry written
// from a relative invocation still launches at login.
func Install(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("empty command line")
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	args = append([]string{exe}, CleanArgs(args[1:])...)

	path, err := EntryPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create startup dir: %w", err)
	}

	var content string
	switch runtime.GOOS {
	case "windows":
		content = fmt.Sprintf("@echo off\r\nstart \"\" %s\r\n", windowsQuote(args))
	case "darwin":
		content = launchAgentPlist(args)
	default:
		content = desktopEntry(args)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write startup entry %s: %w", path, err)
	}
	return path, nil
}

// Uninstall removes the startup entry if present and returns its path.
func Uninstall() (string, error) {
	path, err := EntryPath()
	if err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("remove startup entry %s: %w", path, err)
	}
	return path, nil
}

func desktopEntry(args []string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=autosort\n")
	b.WriteString("Comment=Sort files into folders by extension\n")
	fmt.Fprintf(&b, "Exec=%s\n", strings.Join(args, " "))
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

func launchAgentPlist(args []string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	b.WriteString("<plist version=\"1.0\">\n<dict>\n")
	b.WriteString("\t<key>Label</key>\n\t<string>io.autosort</string>\n")
	b.WriteString("\t<key>ProgramArguments</key>\n\t<array>\n")
	for _, arg := range args {
		fmt.Fprintf(&b, "\t\t<string>%s</string>\n", arg)
	}
	b.WriteString("\t</array>\n")
	b.WriteString("\t<key>RunAtLoad</key>\n\t<true/>\n")
	b.WriteString("</dict>\n</plist>\n")
	return b.String()
}

func windowsQuote(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			arg = `"` + arg + `"`
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}
