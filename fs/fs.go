// Package appfs embeds the files the binaries need at runtime: database
// migrations, e-mail templates and static assets.
package appfs

import "embed"

//go:embed assets migrations all:templates
var FS embed.FS
