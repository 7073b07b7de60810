package frontend

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// GetDistFS returns the embedded dashboard filesystem
func GetDistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}

// Load returns the embedded filesystem together with its parsed index template
func Load() (fs.FS, *template.Template, error) {
	dist, err := GetDistFS()
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := LoadIndexTemplate(dist)
	if err != nil {
		return nil, nil, err
	}
	return dist, tmpl, nil
}
