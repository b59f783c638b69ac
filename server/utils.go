package server

import (
	"os"
)

// dataDir returns the dump output directory, matching the config default.
func dataDir() string {
	if d := os.Getenv("DATA_DIR"); d != "" {
		return d
	}
	return "data"
}
