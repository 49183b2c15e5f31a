package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetTurnwiseHome returns the turnwise home directory, created if absent.
// Priority: TURNWISE_HOME environment variable, then .turnwise under the
// current working directory.
func GetTurnwiseHome() (string, error) {
	if home := os.Getenv("TURNWISE_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create turnwise home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".turnwise")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create turnwise home directory: %w", err)
	}
	return home, nil
}

// GetHistoryDBPath returns the default run-history database path:
// $TURNWISE_HOME/history/runs.db.
func GetHistoryDBPath() (string, error) {
	home, err := GetTurnwiseHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history", "runs.db"), nil
}
