// Package dotdir manages the .finchat/ and ~/.finchat directories.
//
// The directory holds the persistent CLI configuration (config.toml) and the
// default service log file. A project-local ./.finchat/ takes precedence over
// the home directory so repositories can pin their own advice service target.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the finchat directory.
	dirName = ".finchat"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .finchat/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.finchat/ dir
//  3. Home ~/.finchat/ dir
//  4. If none found, attempt to create ~/.finchat/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating finchat directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// LogPath returns the default service log file path inside the resolved
// .finchat/ directory.
func (m *Manager) LogPath(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(target, "service.log"), nil
}

// localDirExists checks whether a .finchat/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
