// Package web provides the embedded static assets for the match front page.
package web

import "embed"

// StaticFS contains the embedded static assets.
//
//go:embed all:static
var StaticFS embed.FS
