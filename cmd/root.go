package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"matdoctor/internal/config"
	"matdoctor/internal/integrity"
	"matdoctor/internal/store"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "matdoctor",
	Short: "Diagnose and repair material integrity in a character asset database",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .assets.db database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to matdoctor.yaml policy config")
}

// DiscoverDB finds the database path using priority: env > flag > walk-up
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("MATDOCTOR_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".assets.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return "", fmt.Errorf("no .assets.db found (set MATDOCTOR_DB, use --db, or run from a directory containing .assets.db)")
}

// OpenStore discovers and opens the asset database
func OpenStore() (*store.Store, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// LoadTables loads the classifier/policy tables: built-in defaults plus the
// optional --config file.
func LoadTables() (*integrity.Tables, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Tables(), nil
}

// LoadPass opens the store and loads everything one pass needs. Any failure
// here is a collaborator failure and aborts the whole pass.
func LoadPass() (*store.Store, *integrity.Snapshot, integrity.TextureIndex, *integrity.Tables, error) {
	st, err := OpenStore()
	if err != nil {
		return nil, nil, integrity.TextureIndex{}, nil, err
	}
	snap, err := st.LoadSnapshot()
	if err != nil {
		st.Close()
		return nil, nil, integrity.TextureIndex{}, nil, fmt.Errorf("loading graph: %w", err)
	}
	idx, err := st.LoadTextureIndex()
	if err != nil {
		st.Close()
		return nil, nil, integrity.TextureIndex{}, nil, err
	}
	tables, err := LoadTables()
	if err != nil {
		st.Close()
		return nil, nil, integrity.TextureIndex{}, nil, err
	}
	return st, snap, idx, tables, nil
}
