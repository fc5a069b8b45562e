// Package sysutil holds small process-level helpers shared by the server
// entrypoint and the HTTP layer.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel applies LOG_LEVEL to the global zerolog level and returns the
// level in effect. "warning" is accepted for warn; blank or unknown values
// fall back to info. "disabled" and "trace" are honored as zerolog defines them.
func SetLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// FirstPresent returns the first value that was actually sent, i.e. is not
// the empty string. Whitespace-only values count as present and are returned
// untouched.
func FirstPresent(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
