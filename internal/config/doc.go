// Package config loads, validates, and defaults the TOML configuration for
// the reelsmith daemon and CLI.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/reelsmith/config.toml, then ./reelsmith.toml. Missing files are
// not an error; defaults apply. All duration-like values are plain integer
// seconds in the file and converted at the point of use.
package config
