package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvOutput         = "TSOUT_OUTPUT"
	EnvExternals      = "TSOUT_EXTERNALS"
	EnvBarrelPackages = "TSOUT_BARREL_PACKAGES"
	EnvJobs           = "TSOUT_JOBS"
	EnvLogLevel       = "TSOUT_LOG_LEVEL"
)

// readEnv returns the TSOUT_ variables of the process environment, falling
// back to <root>/.env for the ones the process does not set.
func readEnv(root string) (map[string]string, error) {
	dotenv, err := godotenv.Read(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	env := make(map[string]string)
	for _, key := range []string{EnvOutput, EnvExternals, EnvBarrelPackages, EnvJobs, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		} else if v, ok := dotenv[key]; ok {
			env[key] = v
		}
	}
	return env, nil
}

func (r *Resolved) applyEnv(env map[string]string) error {
	if v := strings.TrimSpace(env[EnvOutput]); v != "" {
		r.OutputRoot = r.abs(v)
	}
	if list := splitList(env[EnvExternals]); len(list) > 0 {
		r.Externals = list
	}
	if list := splitList(env[EnvBarrelPackages]); len(list) > 0 {
		r.BarrelPackages = list
	}
	if v := strings.TrimSpace(env[EnvJobs]); v != "" {
		jobs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvJobs, v, err)
		}
		r.Jobs = jobs
	}
	if v := strings.TrimSpace(env[EnvLogLevel]); v != "" {
		r.LogLevel = v
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
