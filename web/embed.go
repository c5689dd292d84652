// Package web embeds the listing page templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the stylesheet and the live channel script.
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the page layout, the index page and the grid partial.
func TemplatesFS() fs.FS {
	return sub("templates")
}

// sub panics if dir was not embedded.
func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: embedded " + dir + " missing: " + err.Error())
	}
	return f
}
