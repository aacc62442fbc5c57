package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/dmitrymomot/notifyrelay/pkg/cache"
)

// TemplateExt is the file extension of email templates.
const TemplateExt = ".html"

const defaultTemplateCacheSize = 64

// Renderer turns a template name and its data into an HTML body.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
	ListTemplates() ([]string, error)
}

// TemplateRenderer renders html/template files named "<name>.html" from a
// file system. Parsed templates are kept in a bounded LRU cache.
type TemplateRenderer struct {
	fsys  fs.FS
	cache *cache.LRUCache[string, *template.Template]
	funcs template.FuncMap
}

// RendererOption configures a TemplateRenderer.
type RendererOption func(*TemplateRenderer)

// WithTemplateCacheSize bounds the number of parsed templates kept in memory.
func WithTemplateCacheSize(n int) RendererOption {
	return func(r *TemplateRenderer) {
		if n > 0 {
			r.cache = cache.NewLRUCache[string, *template.Template](n)
		}
	}
}

// WithTemplateFuncs adds functions available to every template.
func WithTemplateFuncs(funcs template.FuncMap) RendererOption {
	return func(r *TemplateRenderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// NewTemplateRenderer creates a renderer reading templates from fsys.
func NewTemplateRenderer(fsys fs.FS, opts ...RendererOption) (*TemplateRenderer, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: template file system is nil", ErrInvalidConfig)
	}

	r := &TemplateRenderer{
		fsys:  fsys,
		cache: cache.NewLRUCache[string, *template.Template](defaultTemplateCacheSize),
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"default": func(def, v any) any {
				if v == nil || v == "" {
					return def
				}
				return v
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRendererFromConfig reads templates from cfg.TemplatesDir when it is set
// and from fallback otherwise.
func NewRendererFromConfig(cfg Config, fallback fs.FS) (*TemplateRenderer, error) {
	fsys := fallback
	if cfg.TemplatesDir != "" {
		fsys = os.DirFS(cfg.TemplatesDir)
	}
	return NewTemplateRenderer(fsys, WithTemplateCacheSize(cfg.TemplateCacheSize))
}

// Render executes template name with data.
func (r *TemplateRenderer) Render(name string, data map[string]any) (string, error) {
	if !validTemplateName(name) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	tmpl, _, err := r.cache.GetOrCreate(name, func() (*template.Template, error) {
		return r.parse(name)
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// ListTemplates returns the sorted template names without their extension.
// A missing root yields an empty list.
func (r *TemplateRenderer) ListTemplates() ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != TemplateExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), TemplateExt))
	}
	slices.Sort(names)
	return names, nil
}

func (r *TemplateRenderer) parse(name string) (*template.Template, error) {
	file := name + TemplateExt

	src, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return nil, errors.Join(ErrTemplateRender, err)
	}

	tmpl, err := template.New(file).Funcs(r.funcs).Parse(string(src))
	if err != nil {
		return nil, errors.Join(ErrTemplateRender, err)
	}
	return tmpl, nil
}

// Template names are flat: no separators, no dot segments.
func validTemplateName(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return false
	}
	return fs.ValidPath(name + TemplateExt)
}
