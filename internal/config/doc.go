// Package config loads the wallet daemon's JSON configuration and applies
// defaults. Secrets are pulled from environment variables referenced by the
// *_env fields so they never have to appear in the file itself.
package config
