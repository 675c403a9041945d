package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads dotenv files with priority .env.<env>.local > .env.local > .env.<env> > .env.
// godotenv.Load never overwrites variables that are already set,
// so real environment variables always win.
// Returns the files actually loaded.
func LoadDotEnv(env string) []string {
	candidates := []string{
		fmt.Sprintf(".env.%s.local", env),
		".env.local",
		fmt.Sprintf(".env.%s", env),
		".env",
	}
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// ConfigPath returns the YAML config path for an environment
func ConfigPath(env string) string {
	if p := os.Getenv("CHAT_CONFIG_PATH"); p != "" {
		return p
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}
