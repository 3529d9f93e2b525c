package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/middleware"
)

// ItemStore defines the database methods needed by item and shade handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	ListItems(ctx context.Context) ([]database.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	CreateItem(ctx context.Context, arg database.CreateItemParams) (database.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (database.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListShades(ctx context.Context) ([]database.Shade, error)
	ListShadesByItem(ctx context.Context, itemID uuid.UUID) ([]database.Shade, error)
	CreateShade(ctx context.Context, arg database.CreateShadeParams) (database.Shade, error)
	UpdateShade(ctx context.Context, arg database.UpdateShadeParams) (database.Shade, error)
	DeleteShade(ctx context.Context, arg database.DeleteShadeParams) (uuid.UUID, error)
}

// ItemHandler handles item and shade CRUD endpoints.
type ItemHandler struct {
	store ItemStore
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore) *ItemHandler {
	return &ItemHandler{store: store}
}

// RegisterRoutes registers item and shade endpoints on the given Chi router.
// Expected to be mounted at /items.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	read := r.With(middleware.RequireAction(enum.ActionViewItems))
	write := r.With(middleware.RequireAction(enum.ActionManageItems))

	read.Get("/", h.List)
	write.Post("/", h.Create)
	read.Get("/{id}", h.Get)
	write.Put("/{id}", h.Update)
	write.Delete("/{id}", h.Delete)

	read.Get("/{id}/shades", h.ListShades)
	write.Post("/{id}/shades", h.CreateShade)
	write.Put("/{id}/shades/{sid}", h.UpdateShade)
	write.Delete("/{id}/shades/{sid}", h.DeleteShade)
}

// --- Request / Response types ---

type itemRequest struct {
	Name           string `json:"name"`
	PhotoURL       string `json:"photo_url"`
	Description    string `json:"description"`
	TrackInventory *bool  `json:"track_inventory"`
}

type shadeRequest struct {
	ShadeNumber string `json:"shade_number"`
	ShadeName   string `json:"shade_name"`
	StockCount  *int32 `json:"stock_count"`
}

type itemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	PhotoURL       string          `json:"photo_url"`
	Description    string          `json:"description"`
	TrackInventory bool            `json:"track_inventory"`
	Shades         []shadeResponse `json:"shades"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type shadeResponse struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	ShadeNumber string    `json:"shade_number"`
	ShadeName   string    `json:"shade_name"`
	StockCount  *int32    `json:"stock_count,omitempty"`
}

func toShadeResponse(s database.Shade) shadeResponse {
	stock := s.StockCount
	return shadeResponse{
		ID:          s.ID,
		ItemID:      s.ItemID,
		ShadeNumber: s.ShadeNumber,
		ShadeName:   s.ShadeName,
		StockCount:  &stock,
	}
}

func toItemResponse(i database.Item, shades []database.Shade) itemResponse {
	resp := itemResponse{
		ID:             i.ID,
		Name:           i.Name,
		PhotoURL:       i.PhotoUrl,
		Description:    i.Description,
		TrackInventory: i.TrackInventory,
		Shades:         make([]shadeResponse, 0, len(shades)),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
	for _, s := range shades {
		resp.Shades = append(resp.Shades, toShadeResponse(s))
	}
	return resp
}

func (req *itemRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	req.Description = strings.TrimSpace(req.Description)
}

// validate checks the shade and returns the stock count to store.
func (req *shadeRequest) validate() (int32, string) {
	req.ShadeNumber = strings.TrimSpace(req.ShadeNumber)
	req.ShadeName = strings.TrimSpace(req.ShadeName)
	if req.ShadeNumber == "" {
		return 0, "shade_number is required"
	}
	var stock int32
	if req.StockCount != nil {
		stock = *req.StockCount
	}
	if stock < 0 {
		return 0, "stock_count must be >= 0"
	}
	return stock, ""
}

// --- Item handlers ---

// List returns every item with its shades.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := listItemsWithShades(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single item with its shades.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	shades, err := h.store.ListShadesByItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: list shades: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item, shades))
}

// Create adds a new item. Inventory is tracked unless told otherwise.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.normalize()

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	track := true
	if req.TrackInventory != nil {
		track = *req.TrackInventory
	}

	item, err := h.store.CreateItem(r.Context(), database.CreateItemParams{
		Name:           req.Name,
		PhotoUrl:       req.PhotoURL,
		Description:    req.Description,
		TrackInventory: track,
	})
	if err != nil {
		log.Printf("ERROR: create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item, nil))
}

// Update modifies an existing item.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.normalize()

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	current, err := h.store.GetItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	track := current.TrackInventory
	if req.TrackInventory != nil {
		track = *req.TrackInventory
	}

	item, err := h.store.UpdateItem(r.Context(), database.UpdateItemParams{
		Name:           req.Name,
		PhotoUrl:       req.PhotoURL,
		Description:    req.Description,
		TrackInventory: track,
		ID:             itemID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	shades, err := h.store.ListShadesByItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: list shades: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item, shades))
}

// Delete removes an item and, by cascade, its shades.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	_, err = h.store.DeleteItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "item is used by orders"})
			return
		}
		log.Printf("ERROR: delete item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Shade handlers ---

// ListShades returns the shades of an item.
func (h *ItemHandler) ListShades(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.requireItem(w, r)
	if !ok {
		return
	}

	shades, err := h.store.ListShadesByItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: list shades: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]shadeResponse, len(shades))
	for i, s := range shades {
		resp[i] = toShadeResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateShade adds a shade to an item.
func (h *ItemHandler) CreateShade(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.requireItem(w, r)
	if !ok {
		return
	}

	var req shadeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stock, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	shade, err := h.store.CreateShade(r.Context(), database.CreateShadeParams{
		ItemID:      itemID,
		ShadeNumber: req.ShadeNumber,
		ShadeName:   req.ShadeName,
		StockCount:  stock,
	})
	if err != nil {
		log.Printf("ERROR: create shade: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toShadeResponse(shade))
}

// UpdateShade modifies a shade of an item.
func (h *ItemHandler) UpdateShade(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	shadeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shade ID"})
		return
	}

	var req shadeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stock, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	shade, err := h.store.UpdateShade(r.Context(), database.UpdateShadeParams{
		ShadeNumber: req.ShadeNumber,
		ShadeName:   req.ShadeName,
		StockCount:  stock,
		ID:          shadeID,
		ItemID:      itemID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "shade not found"})
			return
		}
		log.Printf("ERROR: update shade: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toShadeResponse(shade))
}

// DeleteShade removes a shade no order line references.
func (h *ItemHandler) DeleteShade(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	shadeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shade ID"})
		return
	}

	_, err = h.store.DeleteShade(r.Context(), database.DeleteShadeParams{ID: shadeID, ItemID: itemID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "shade not found"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "shade is used by orders"})
			return
		}
		log.Printf("ERROR: delete shade: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// requireItem parses the item ID and verifies the item exists.
func (h *ItemHandler) requireItem(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return uuid.Nil, false
	}

	if _, err := h.store.GetItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return uuid.Nil, false
		}
		log.Printf("ERROR: get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return uuid.Nil, false
	}
	return itemID, true
}

// catalogueStore is the subset of ItemStore needed to list items with shades.
type catalogueStore interface {
	ListItems(ctx context.Context) ([]database.Item, error)
	ListShades(ctx context.Context) ([]database.Shade, error)
}

func listItemsWithShades(ctx context.Context, store catalogueStore) ([]itemResponse, error) {
	items, err := store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	shades, err := store.ListShades(ctx)
	if err != nil {
		return nil, err
	}

	byItem := make(map[uuid.UUID][]database.Shade, len(items))
	for _, s := range shades {
		byItem[s.ItemID] = append(byItem[s.ItemID], s)
	}

	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item, byItem[item.ID])
	}
	return resp, nil
}
