package main

import (
	"log/slog"
	"os"

	"deployctl/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// .env.local may carry DEPLOY_* settings for this checkout. The stack's
	// .env is written by us and is not loaded.
	loadEnvNoOverride(".env.local")
	cmd.Execute()
}

// loadEnvNoOverride sets keys from filename that are not already in the environment.
func loadEnvNoOverride(filename string) {
	m, err := godotenv.Read(filename)
	if err != nil {
		return
	}
	for k, v := range m {
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			slog.Warn("failed setting env", "key", k, "file", filename, "error", err)
		}
	}
}
