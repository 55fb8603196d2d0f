package webview

import (
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed static
var staticFS embed.FS

//go:embed templates/page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// pageData is the tree editor page model
type pageData struct {
	Title string
	Dark  bool
	Token string
}

func (h *Hub) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Title: h.config.Title,
		Dark:  h.theme == "dark",
		Token: h.config.Token,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}
