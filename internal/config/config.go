// Package config loads build-pipeline defaults from the environment, with
// an optional .env overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings the build pipeline needs that a caller would
// otherwise have to repeat on every cobra command: output directory,
// default cross-compile targets, and the batch chunk size the generated
// Python binding uses when marshaling rows into the C ABI.
type Config struct {
	OutputDir       string
	DefaultTargets  []string
	BatchChunkSize  int
	ModuleGoVersion string
}

// Load reads .env (if present, ignored if absent) then environment
// variables, falling back to defaults matched to this repository's own
// go.mod and a single-host build.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Config{
		OutputDir:       getenv("ZIGDAG_OUTPUT_DIR", "dist"),
		DefaultTargets:  []string{"linux/amd64"},
		BatchChunkSize:  1024,
		ModuleGoVersion: "1.24",
	}

	if targets := os.Getenv("ZIGDAG_TARGETS"); targets != "" {
		cfg.DefaultTargets = splitCommaList(targets)
	}

	if chunk := os.Getenv("ZIGDAG_BATCH_CHUNK_SIZE"); chunk != "" {
		n, err := strconv.Atoi(chunk)
		if err != nil {
			return Config{}, fmt.Errorf("config: ZIGDAG_BATCH_CHUNK_SIZE: %w", err)
		}
		cfg.BatchChunkSize = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
