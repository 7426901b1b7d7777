package web

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderMarkdown converts markdown to sanitized HTML for the editor's preview
// pane. The UGC policy strips anything that could script the harness page.
func RenderMarkdown(s string) template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(s))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	rendered := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	sanitized := policy.SanitizeBytes(rendered)

	return template.HTML(sanitized)
}

type previewRequest struct {
	Content string `json:"content"`
}

type previewResponse struct {
	HTML string `json:"html"`
}

// PreviewHandler renders a markdown preview for the editor.
// POST body: {"content": "..."} — response: {"html": "..."}.
func PreviewHandler(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed preview request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(previewResponse{HTML: string(RenderMarkdown(req.Content))})
}
