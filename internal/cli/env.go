package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar points at an alternative .env file and wins over the --env flag.
const EnvFileVar = "SMARTLINGZD_ENV_FILE"

// EnvLoader loads credential overrides from a .env file named on the command line.
type EnvLoader struct {
	path        *string
	defaultPath string
}

// AddEnvFlag registers an --env flag and returns an EnvLoader bound to it.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}
	return &EnvLoader{
		path:        fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

// Load reads the selected .env file and returns its path, or "" when the
// default file is absent. Variables already present in the process environment
// are not overwritten.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		if err := godotenv.Load(custom); err != nil {
			return "", fmt.Errorf("load %s=%s: %w", EnvFileVar, custom, err)
		}
		return custom, nil
	}

	requested := l.defaultPath
	if l.path != nil && strings.TrimSpace(*l.path) != "" {
		requested = strings.TrimSpace(*l.path)
	}

	if _, err := os.Stat(requested); err != nil {
		if requested == l.defaultPath && os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("env file %s: %w", requested, err)
	}
	if err := godotenv.Load(requested); err != nil {
		return "", fmt.Errorf("load env file %s: %w", requested, err)
	}
	return requested, nil
}
