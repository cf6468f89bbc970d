package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentiva/rentiva/internal/shared"
	_ "github.com/rentiva/rentiva/testing"
)

func TestNewEngineParsesAllPages(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/login.html", TemplateData{
		Title:     "Sign in",
		CSRFToken: "token-123",
		Data: struct {
			Form     struct{ Email string }
			Errors   map[string]string
			Redirect string
			Message  string
		}{Redirect: "/dashboard"},
	})
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Contains(t, body, `name="csrf_token" value="token-123"`)
	assert.Contains(t, body, `name="redirect" value="/dashboard"`)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestRenderFlashPartial(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/home.html", TemplateData{
		Title: "Rentiva",
		Flash: &shared.FlashMessage{Kind: "success", Message: "Welcome back"},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(rr.Body.String(), "Welcome back"))
}

func TestRenderUnknownTemplateErrors(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	assert.Error(t, engine.Render(rr, "pages/missing.html", TemplateData{}))
}
