// Package prompt renders the model prompts. Templates are embedded; a file
// <dir>/<name>.<kind>.txt overrides the embedded one so prompts can be tuned
// without a rebuild.
package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const (
	Generate  = "generate"
	Obscurity = "obscurity"

	System = "system"
	User   = "user"
)

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// GenerateData feeds the candidate generation prompt.
type GenerateData struct {
	Exclusions []string
	Remaining  int
	Guidance   string
}

// ObscurityData feeds the obscurity rating prompt.
type ObscurityData struct {
	Answer  string
	Aliases []string
	Hints   []string
}

type Set struct {
	dir string
}

// New returns a Set; an empty dir means embedded templates only.
func New(dir string) *Set {
	return &Set{dir: strings.TrimSpace(dir)}
}

func (s *Set) Render(name, kind string, data any) (string, error) {
	src, err := s.load(name, kind)
	if err != nil {
		return "", err
	}
	t, err := template.New(name + "." + kind).Funcs(funcs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("prompt %s.%s: %w", name, kind, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("prompt %s.%s: %w", name, kind, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (s *Set) load(name, kind string) (string, error) {
	if s != nil && s.dir != "" {
		p := filepath.Join(s.dir, fmt.Sprintf("%s.%s.txt", name, kind))
		if b, err := os.ReadFile(p); err == nil && len(strings.TrimSpace(string(b))) > 0 {
			return string(b), nil
		}
	}
	b, err := embedded.ReadFile(fmt.Sprintf("templates/%s.%s.tmpl", name, kind))
	if err != nil {
		return "", fmt.Errorf("prompt %q (%s) not found", name, kind)
	}
	return string(b), nil
}
