// Package web holds the embedded templates and static assets. In release
// mode the binary serves everything from EmbeddedFS; in debug mode the same
// tree is read from disk for hot reload.
package web

import "embed"

//go:embed templates static
var EmbeddedFS embed.FS
