package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Variables already present in the environment are left untouched.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: skip env file %s: %v", path, err)
		}
	}
}
