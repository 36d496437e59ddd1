package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

// ProcessEnv returns the KEY=VALUE entries added to cargo processes: the
// dotenv file first, then Env on top. Without env_file the default .env is
// read only when it exists.
func (c *Config) ProcessEnv(root string) ([]string, error) {
	vars := make(map[string]string)

	path, explicit := c.EnvFile, c.EnvFile != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	fileVars, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileVars {
			vars[k] = v
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Configf("failed to read env file %s: %v", path, err)
	}

	for k, v := range c.Env {
		vars[k] = v
	}

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)
	return env, nil
}
