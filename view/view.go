// Package view renders the admin pages from embedded html/template files.
// Every page is parsed together with layout.html and the partials.
package view

import (
	"bytes"
	"context"
	"crypto/sha1"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/diewo77/go-seniorcare/auth"
	"github.com/diewo77/go-seniorcare/i18n"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates returns the embedded template tree rooted at templates/.
func Templates() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Static returns the embedded static assets rooted at static/.
func Static() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// Context key for theme
type themeKey struct{}

// WithTheme returns a new context with the given theme.
func WithTheme(ctx context.Context, theme string) context.Context {
	return context.WithValue(ctx, themeKey{}, theme)
}

// ThemeFromContext retrieves the theme from context, defaulting to "light".
func ThemeFromContext(ctx context.Context) string {
	if theme, ok := ctx.Value(themeKey{}).(string); ok {
		return theme
	}
	return "light"
}

// CanFunc reports whether the request's user holds permission
// (e.g. "project.senior_user:update").
type CanFunc func(r *http.Request, permission string) bool

// Renderer parses and caches templates. Templates are parsed per request
// language because the func map closes over it.
type Renderer struct {
	templates fs.FS
	static    fs.FS
	dev       bool
	can       CanFunc

	mu    sync.RWMutex
	cache map[string]*template.Template

	assetsOnce sync.Once
	assets     map[string]string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDev disables the template cache.
func WithDev(dev bool) Option {
	return func(rd *Renderer) { rd.dev = dev }
}

// WithCan sets the permission check exposed to templates as "can".
func WithCan(f CanFunc) Option {
	return func(rd *Renderer) { rd.can = f }
}

// New creates a renderer over the embedded templates.
func New(opts ...Option) *Renderer {
	rd := &Renderer{
		templates: Templates(),
		static:    Static(),
		cache:     make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Funcs returns the func map for r.
func (rd *Renderer) Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	theme := ThemeFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		// can checks a profile-level permission, "resource:action"
		"can": func(permission string) bool {
			if rd.can == nil {
				return false
			}
			return rd.can(r, permission)
		},
		"theme": func() string { return theme },
		"year":  func() int { return time.Now().Year() },
		"asset": rd.asset,
		// deref renders a nullable string; null renders as "".
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Render writes the page with status 200.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return rd.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes name into a buffer and writes it with status. A
// template error leaves the response untouched so the caller can answer 500.
func (rd *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	t, err := rd.lookup(r, name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func (rd *Renderer) lookup(r *http.Request, name string) (*template.Template, error) {
	key := i18n.LangFromContext(r.Context()) + "|" + name
	if !rd.dev {
		rd.mu.RLock()
		t, ok := rd.cache[key]
		rd.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	partials, err := fs.Glob(rd.templates, "partials/*.html")
	if err != nil {
		return nil, err
	}
	files := append([]string{"layout.html", name}, partials...)
	t, err := template.New("layout.html").Funcs(rd.Funcs(r)).ParseFS(rd.templates, files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	if !rd.dev {
		rd.mu.Lock()
		rd.cache[key] = t
		rd.mu.Unlock()
	}
	return t, nil
}

// asset returns /static/<rel>?v=<hash> for cache busting.
func (rd *Renderer) asset(rel string) string {
	rd.assetsOnce.Do(func() {
		rd.assets = make(map[string]string)
		_ = fs.WalkDir(rd.static, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			b, err := fs.ReadFile(rd.static, p)
			if err != nil {
				return nil
			}
			h := sha1.Sum(b)
			rd.assets[p] = fmt.Sprintf("%x", h[:8])
			return nil
		})
	})
	rel = path.Clean(rel)
	if v, ok := rd.assets[rel]; ok {
		return "/static/" + rel + "?v=" + v
	}
	return "/static/" + rel
}
