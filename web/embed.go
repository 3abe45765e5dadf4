// Package web embeds the HTML templates and static assets served by the
// page handlers.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the stylesheet and other static assets.
func StaticFS() fs.FS {
	return mustSub("static")
}

// TemplatesFS returns the page templates, layout.html included.
func TemplatesFS() fs.FS {
	return mustSub("templates")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: embedded directory " + dir + ": " + err.Error())
	}
	return sub
}
