package autostart

import (
	"runtime"
	"strings"
)

const serviceName = "syncwatch"

type AutoStarter interface {
	Install(execPath string, args []string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

func New() AutoStarter {
	switch runtime.GOOS {
	case "windows":
		return &WindowsAutoStarter{}
	case "linux":
		return &LinuxAutoStarter{}
	default:
		return &UnsupportedAutoStarter{}
	}
}

type UnsupportedAutoStarter struct{}

func (u *UnsupportedAutoStarter) Install(_ string, _ []string) error {
	return nil
}

func (u *UnsupportedAutoStarter) Uninstall() error {
	return nil
}

func (u *UnsupportedAutoStarter) IsInstalled() (bool, error) {
	return false, nil
}

// commandLine joins execPath and args, double-quoting any word that
// contains whitespace or a double quote.
func commandLine(execPath string, args []string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{execPath}, args...) {
		words = append(words, quote(w))
	}
	return strings.Join(words, " ")
}

func quote(w string) string {
	if w != "" && !strings.ContainsAny(w, " \t\"") {
		return w
	}

	return `"` + strings.ReplaceAll(w, `"`, `\"`) + `"`
}
