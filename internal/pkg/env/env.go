package env

import (
	"os"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env found. Without one the process runs on
// OS environment variables only.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/guildsite to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		vals, err := godotenv.Read(envFile)
		if err == nil {
			Env = vals
			return
		}
	}

	Env = map[string]string{}
	fiberlog.Warn("[Env] No .env file found, using OS environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
