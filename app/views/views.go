// Package views holds the HTML templates, embedded into the binary.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"blogsite/app/media"
)

//go:embed templates
var files embed.FS

// DateFormat is the layout used by the formatDate template function.
const DateFormat = "2006年01月02日 15:04"

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"formatDate":    FormatDate,
	"truncateWords": TruncateWords,
	"mediaURL":      media.URL,
	"add":           func(a, b int) int { return a + b },
}

// FormatDate renders t in local time as YYYY年MM月DD日 HH:MM.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateFormat)
}

// TruncateWords keeps the first n words of s, appending an ellipsis when
// anything was cut.
func TruncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// Load parses every page together with the shared layout. Pages are keyed
// by their path below templates/ without the extension, e.g. "posts/list".
func Load() (map[string]*template.Template, error) {
	layout, err := files.ReadFile("templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	templates := make(map[string]*template.Template)
	err = fs.WalkDir(files, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Base(p) == "layout.html" {
			return err
		}
		page, err := files.ReadFile(p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		t, err := template.New("layout").Funcs(Funcs).Parse(string(layout))
		if err != nil {
			return fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.New(name).Parse(string(page)); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// MustLoad is Load for program start-up.
func MustLoad() map[string]*template.Template {
	templates, err := Load()
	if err != nil {
		panic(err)
	}
	return templates
}
