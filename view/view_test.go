package view

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-seniorcare/i18n"
)

func strPtr(s string) *string { return &s }

func TestRender_LayoutAndLanguage(t *testing.T) {
	rd := New(WithCan(func(_ *http.Request, perm string) bool { return perm == "project.senior_user:list" }))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(i18n.WithLang(req.Context(), "en"))
	rec := httptest.NewRecorder()

	require.NoError(t, rd.Render(rec, req, "login.html", map[string]any{"Error": "invalid_credentials"}))
	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `<html lang="en"`)
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, `href="/senior-users"`)
	assert.Regexp(t, `/static/picker\.js\?v=[0-9a-f]{16}`, body)
}

func TestRenderStatus_EditPage(t *testing.T) {
	rd := New()
	req := httptest.NewRequest(http.MethodGet, "/senior-users/edit/s1", nil)
	rec := httptest.NewRecorder()

	type field struct {
		Name, Label, Value, Error string
		Null                      bool
	}
	type option struct {
		Value, Label string
		Selected     bool
	}
	type picker struct {
		field
		Placeholder, OptionsURL string
		Options                 []option
	}
	form := struct {
		ID                                string
		Loading, ShowForm, SubmitDisabled bool
		Progress                          field
		Pickers                           []picker
	}{
		ID:       "s1",
		ShowForm: true,
		Progress: field{Name: "progress", Label: "progress", Value: "", Null: true},
		Pickers: []picker{{
			field:       field{Name: "user_id", Label: "user", Value: "u1", Error: "not_found"},
			Placeholder: "select_user",
			OptionsURL:  "/senior-users/edit/s1/options/user_id",
			Options:     []option{{Value: "u1", Label: "jeanne@example.com", Selected: true}},
		}},
	}

	err := rd.RenderStatus(rec, req, http.StatusUnprocessableEntity, "senior-users/edit.html", map[string]any{
		"Form":  form,
		"Error": "error_submit",
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body, `action="/senior-users/edit/s1"`)
	assert.Contains(t, body, `name="null_fields" value="progress"`)
	assert.Contains(t, body, `<option value="u1" selected>jeanne@example.com</option>`)
	assert.Contains(t, body, template.HTMLEscapeString(i18n.T("fr", "error_submit")))
	assert.Contains(t, body, template.HTMLEscapeString(i18n.T("fr", "not_found")))
	assert.NotContains(t, body, " disabled>")
}

func TestRenderStatus_MissingTemplate(t *testing.T) {
	rd := New()
	rec := httptest.NewRecorder()
	err := rd.RenderStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope.html", nil)
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

func TestFuncs_Deref(t *testing.T) {
	rd := New()
	f := rd.Funcs(httptest.NewRequest(http.MethodGet, "/", nil))["deref"].(func(*string) string)
	assert.Equal(t, "", f(nil))
	assert.Equal(t, "x", f(strPtr("x")))
}

func TestTheme(t *testing.T) {
	assert.Equal(t, "light", ThemeFromContext(context.Background()))
	assert.Equal(t, "dark", ThemeFromContext(WithTheme(context.Background(), "dark")))
}

func TestStaticEmbedded(t *testing.T) {
	b, err := fsReadFile("picker.js")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "data-null-marker"))
}

func fsReadFile(name string) ([]byte, error) {
	return fs.ReadFile(Static(), name)
}
