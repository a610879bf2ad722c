// Package config carries runtime configuration for GoCurhat, resolved from
// the environment with sensible defaults.
package config

import (
	"os"
	"strconv"
)

// Config holds everything the engine and services need at startup.
type Config struct {
	// GoogleAPIKey authenticates the generative calls. Empty disables the
	// remote client; services then degrade to canned replies.
	GoogleAPIKey string

	TextModel  string
	ImageModel string
	VideoModel string

	// BlobDSN is the SQLite data source for the blob store.
	BlobDSN string
	// SnapshotPath is the snapshot file location for native builds.
	SnapshotPath string
	// SnapshotQuota caps the snapshot document in bytes; 0 means default.
	SnapshotQuota int
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		TextModel:    "gemini-2.5-flash",
		ImageModel:   "imagen-4.0-generate-001",
		VideoModel:   "veo-2.0-generate-001",
		BlobDSN:      "gocurhat-blobs.db",
		SnapshotPath: "gocurhat-snapshot.json",
	}
}

// FromEnv resolves the configuration from environment variables, falling
// back to Default for anything unset.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("GOCURHAT_API_KEY"); v != "" {
		cfg.GoogleAPIKey = v
	}
	if v := os.Getenv("GOCURHAT_TEXT_MODEL"); v != "" {
		cfg.TextModel = v
	}
	if v := os.Getenv("GOCURHAT_IMAGE_MODEL"); v != "" {
		cfg.ImageModel = v
	}
	if v := os.Getenv("GOCURHAT_VIDEO_MODEL"); v != "" {
		cfg.VideoModel = v
	}
	if v := os.Getenv("GOCURHAT_BLOB_DSN"); v != "" {
		cfg.BlobDSN = v
	}
	if v := os.Getenv("GOCURHAT_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("GOCURHAT_SNAPSHOT_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotQuota = n
		}
	}
	return cfg
}
