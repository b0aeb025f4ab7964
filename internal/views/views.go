// Package views embeds the server-rendered HTML templates.
package views

import "embed"

//go:embed *.html
var FS embed.FS
