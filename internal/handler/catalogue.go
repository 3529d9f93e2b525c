package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/middleware"
)

// CatalogueHandler serves the read-only product catalogue.
type CatalogueHandler struct {
	store catalogueStore
}

// NewCatalogueHandler creates a new CatalogueHandler.
// store is satisfied by *database.Queries.
func NewCatalogueHandler(store catalogueStore) *CatalogueHandler {
	return &CatalogueHandler{store: store}
}

// RegisterRoutes registers the catalogue endpoint.
func (h *CatalogueHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(enum.ActionViewItems)).Get("/catalogue", h.List)
}

// List returns every item with its shades. Stock counts are omitted for
// items that do not track inventory.
func (h *CatalogueHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := listItemsWithShades(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: list catalogue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	for i := range resp {
		if resp[i].TrackInventory {
			continue
		}
		for j := range resp[i].Shades {
			resp[i].Shades[j].StockCount = nil
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
