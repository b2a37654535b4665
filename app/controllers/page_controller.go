package controllers

import "net/http"

// PageController serves the static content pages.
type PageController struct {
	*Renderer
}

func NewPageController(rd *Renderer) *PageController {
	return &PageController{Renderer: rd}
}

func (pc *PageController) About(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, "about", &PageData{Title: "About"})
}

func (pc *PageController) Contact(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, "contact", &PageData{Title: "Contact"})
}
