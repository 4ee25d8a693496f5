package msgcat

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded embed.FS

// Catalog maps dotted keys ("board.turn") to compiled text templates.
// It is immutable once built.
type Catalog struct {
	tmpl map[string]*template.Template
}

// New compiles the embedded English messages, then every *.yaml / *.yml file
// directly under overrideDir (in name order) on top of them. Two override files
// defining the same key is an error.
func New(overrideDir string) (*Catalog, error) {
	msgs, err := loadFile(embedded, "messages.en.yaml")
	if err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		over, err := loadOverrides(os.DirFS(dir))
		if err != nil {
			return nil, fmt.Errorf("messages dir %s: %w", dir, err)
		}
		for k, v := range over {
			msgs[k] = v
		}
	}

	c := &Catalog{tmpl: make(map[string]*template.Template, len(msgs))}
	for key, text := range msgs {
		t, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", key, err)
		}
		c.tmpl[key] = t
	}
	return c, nil
}

// MustDefault returns the embedded catalog.
func MustDefault() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

func loadOverrides(fsys fs.FS) (map[string]string, error) {
	if _, err := fs.ReadDir(fsys, "."); err != nil {
		return nil, err
	}
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		names = append(names, m...)
	}

	out := make(map[string]string)
	origin := make(map[string]string)
	for _, name := range names {
		msgs, err := loadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		for k, v := range msgs {
			if prev, dup := origin[k]; dup {
				return nil, fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			origin[k] = name
			out[k] = v
		}
	}
	return out, nil
}

func loadFile(fsys fs.FS, name string) (map[string]string, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	if err := collect(doc.Content[0], "", out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// collect walks nested mappings; leaves must be plain strings.
func collect(n *yaml.Node, prefix string, out map[string]string) error {
	switch {
	case n.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := collect(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!str" && prefix != "":
		out[prefix] = n.Value
		return nil
	default:
		return fmt.Errorf("line %d: %q must be a string", n.Line, prefix)
	}
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	_, ok := c.tmpl[strings.TrimSpace(key)]
	return ok
}

// Render executes the template stored under key. Fields missing from data are
// errors rather than "<no value>".
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	t, ok := c.tmpl[key]
	if !ok {
		return "", fmt.Errorf("message not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return b.String(), nil
}

// RenderOr is Render with a fallback for missing keys or bad data.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	s, err := c.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}
