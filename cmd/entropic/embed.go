package main

import (
	"embed"
	"io/fs"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/server"
)

// The ui directory holds the static dashboard served at the root path.
//
//go:embed all:ui
var uiDist embed.FS

func init() {
	sub, err := fs.Sub(uiDist, "ui")
	if err != nil {
		return
	}
	server.SetUI(sub)
}
