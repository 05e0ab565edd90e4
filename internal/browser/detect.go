package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DetectBrowser finds a Chromium-family executable on the system. Returns
// the path, or empty string if nothing usable is installed.
func DetectBrowser() string {
	var candidates []string

	switch runtime.GOOS {
	case "windows":
		candidates = windowsCandidates()
	case "darwin":
		candidates = macOSCandidates()
	default:
		candidates = linuxCandidates()
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}
		expanded := os.ExpandEnv(path)
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}

	for _, name := range []string{"chrome", "chromium", "chromium-browser", "google-chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// Priority everywhere: Chrome > Chromium > Edge > Vivaldi > Opera > Brave.

func windowsCandidates() []string {
	localAppData := os.Getenv("LOCALAPPDATA")
	programFiles := os.Getenv("ProgramFiles")
	programFilesX86 := os.Getenv("ProgramFiles(x86)")

	return []string{
		filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe"),
		filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"),
		filepath.Join(localAppData, "Google", "Chrome", "Application", "chrome.exe"),
		filepath.Join(programFiles, "Chromium", "Application", "chrome.exe"),
		filepath.Join(programFilesX86, "Chromium", "Application", "chrome.exe"),
		filepath.Join(localAppData, "Chromium", "Application", "chrome.exe"),
		filepath.Join(programFiles, "Microsoft", "Edge", "Application", "msedge.exe"),
		filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe"),
		filepath.Join(localAppData, "Vivaldi", "Application", "vivaldi.exe"),
		filepath.Join(programFiles, "Vivaldi", "Application", "vivaldi.exe"),
		filepath.Join(localAppData, "Programs", "Opera", "opera.exe"),
		filepath.Join(programFiles, "Opera", "opera.exe"),
		filepath.Join(programFiles, "BraveSoftware", "Brave-Browser", "Application", "brave.exe"),
		filepath.Join(localAppData, "BraveSoftware", "Brave-Browser", "Application", "brave.exe"),
	}
}

func macOSCandidates() []string {
	return []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		os.ExpandEnv("$HOME/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		os.ExpandEnv("$HOME/Applications/Chromium.app/Contents/MacOS/Chromium"),
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		"/Applications/Vivaldi.app/Contents/MacOS/Vivaldi",
		"/Applications/Opera.app/Contents/MacOS/Opera",
		"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
	}
}

func linuxCandidates() []string {
	return []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/var/lib/flatpak/exports/bin/com.google.Chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/var/lib/flatpak/exports/bin/org.chromium.Chromium",
		"/usr/bin/microsoft-edge-stable",
		"/usr/bin/microsoft-edge",
		"/usr/bin/vivaldi",
		"/usr/bin/vivaldi-stable",
		"/usr/bin/opera",
		"/usr/bin/brave-browser",
		"/opt/brave.com/brave/brave-browser",
	}
}

// DefaultProfilePath returns a per-OS profile directory dedicated to this
// tool, so automation never contends with the user's main browser profile.
func DefaultProfilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, ".resume-exporter-profile")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "resume-exporter-profile")
	default:
		return filepath.Join(homeDir, ".config", "resume-exporter-profile")
	}
}
