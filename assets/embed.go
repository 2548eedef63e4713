package assets

import "embed"

// EmbeddedFiles holds the SQL migrations shipped with the binary.
//
//go:embed migrations
var EmbeddedFiles embed.FS
