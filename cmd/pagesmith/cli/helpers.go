package cli

import (
	"os"

	"github.com/pagesmith/pagesmith/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag,
// PAGESMITH_DATA_DIR env var, or ~/.pagesmith as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("PAGESMITH_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.pagesmith"
}

// openStore opens the SQLite store in the resolved data directory.
func openStore() (*store.Store, error) {
	return store.NewStore(resolveDataDir())
}
