// Package remotestore implements the remote key/value table on top of postgres, redis and sqlite.
//
// Every table stores the value column as text and returns it untouched; normalizing the payloads is
// left to the storage package.
package remotestore

import "strings"

// escapeLike escapes the LIKE wildcards of s, using backslash as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// escapeGlob escapes the redis MATCH wildcards of s.
func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}
