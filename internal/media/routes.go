package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kastel/media-proxy/internal/response"
)

// Routes registers the gateway's four flows. Uploads accept an optional trailing
// filename segment after the id; fetches are exact-shape. Anything outside GET
// and PUT answers 405.
func (h *Handler) Routes(r chi.Router) {
	r.Put("/g/{id}", h.UploadFile)
	r.Put("/g/{id}/*", h.UploadFile)
	r.Put("/u/{id}", h.UploadIcon)
	r.Put("/u/{id}/*", h.UploadIcon)

	r.Get("/icon/{id}/{file}", h.FetchIcon)
	r.Get("/{id}/{filename}", h.FetchFile)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w)
	})
}
