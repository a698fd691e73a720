package handlers

import "net/http"

// DocsHandler serves the static API documentation page.
type DocsHandler struct {
	file string
}

func NewDocsHandler(file string) *DocsHandler {
	return &DocsHandler{file: file}
}

func (h *DocsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, h.file)
}
