package shell

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/javanhut/ravencore/config"
)

// ErrNoShell is returned when neither the configuration nor the system
// names an executable shell.
var ErrNoShell = errors.New("no usable shell found")

// FindShell picks the configured shell, then the user's login shell from
// /etc/passwd, then the first common shell that exists.
func FindShell(cfg config.ShellConfig) (string, error) {
	if cfg.Path != "" {
		if isExecutable(cfg.Path) {
			return cfg.Path, nil
		}
		return "", fmt.Errorf("%w: configured shell %s is not executable", ErrNoShell, cfg.Path)
	}

	if currentUser, err := user.Current(); err == nil {
		if shell := getUserShell("/etc/passwd", currentUser.Username); shell != "" && isExecutable(shell) {
			return shell, nil
		}
	}

	for _, shell := range config.GetAvailableShells() {
		if isExecutable(shell) {
			return shell, nil
		}
	}
	return "", ErrNoShell
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

// getUserShell reads the user's shell from a passwd file
func getUserShell(passwd, username string) string {
	data, err := os.ReadFile(passwd)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}
