// Package config loads the optional on-disk defaults file shared by all
// three programs. Grounded on the teacher's own LoadWingConfig: a missing
// file is not an error, just an empty set of defaults, and flags always
// win over whatever the file says.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/karo-systems/karo-logger/internal/message"
)

// FileDefaults holds whatever a user has pinned in the defaults file so
// they don't have to repeat flags on every invocation (spec §6 names the
// flags each program must honor; this is the ambient layer underneath
// them, not a spec requirement itself).
type FileDefaults struct {
	LogLevel          string `yaml:"log_level,omitempty"`
	LogLocation       string `yaml:"log_location,omitempty"`
	NumBytesRotate    int64  `yaml:"num_bytes_rotate,omitempty"`
	KeepNumFiles      int    `yaml:"keep_num_files,omitempty"`
	SocketPath        string `yaml:"socket_path,omitempty"`
	ControlSocketPath string `yaml:"control_socket_path,omitempty"`
}

// DefaultPath returns the conventional defaults-file location,
// $XDG_CONFIG_HOME/karo-logger/config.yaml (or its platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "karo-logger", "config.yaml")
}

// Load reads the defaults file at path. A missing file yields a
// zero-value FileDefaults and no error, matching LoadWingConfig's
// tolerate-missing-file behavior.
func Load(path string) (*FileDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileDefaults{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var d FileDefaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &d, nil
}

// ResolveLevel parses a level string from a flag. An unrecognized value is
// a Config error (spec §7): it fails program startup rather than silently
// degrading to some default level.
func ResolveLevel(s string) (message.Level, error) {
	l, ok := message.ParseLevel(s)
	if !ok {
		return 0, fmt.Errorf("config: unrecognized log level %q", s)
	}
	return l, nil
}
