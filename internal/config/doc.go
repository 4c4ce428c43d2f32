// Package config loads, normalizes, and validates vocalless configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TEMP_DIR, VOCAL_REMOVER_PATH, and YOUTUBE_DL_FFMPEG_PATH, optionally seeded
// from a .env file. A missing or non-existent required directory is a fatal
// validation error.
package config
