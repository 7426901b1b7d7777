package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown_BasicFormatting(t *testing.T) {
	out := string(RenderMarkdown("# Heading\n\nSome **bold** text."))

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out := string(RenderMarkdown("Hello <script>alert('xss')</script> world"))

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "alert(")
	assert.Contains(t, out, "Hello")
}

func TestRenderMarkdown_StripsEventHandlers(t *testing.T) {
	out := string(RenderMarkdown(`<img src="x" onerror="alert(1)">`))

	assert.NotContains(t, out, "onerror")
}

func TestRenderMarkdown_LinksGetNofollowRel(t *testing.T) {
	out := string(RenderMarkdown("[docs](https://example.com)"))

	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `rel="nofollow"`)
}

func TestPreviewHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(`{"content":"*hi*"}`))
	rec := httptest.NewRecorder()

	PreviewHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.HTML, "<em>hi</em>")
}

func TestPreviewHandler_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	PreviewHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
