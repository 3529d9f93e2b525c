package handler_test

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/handler"
)

// --- Mock store ---

type mockItemStore struct {
	items  map[uuid.UUID]database.Item
	shades map[uuid.UUID]database.Shade
	inUse  map[uuid.UUID]bool // item or shade IDs referenced by order lines
}

func newMockItemStore() *mockItemStore {
	return &mockItemStore{
		items:  make(map[uuid.UUID]database.Item),
		shades: make(map[uuid.UUID]database.Shade),
		inUse:  make(map[uuid.UUID]bool),
	}
}

func (m *mockItemStore) ListItems(_ context.Context) ([]database.Item, error) {
	result := make([]database.Item, 0, len(m.items))
	for _, i := range m.items {
		result = append(result, i)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (m *mockItemStore) GetItem(_ context.Context, id uuid.UUID) (database.Item, error) {
	i, ok := m.items[id]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *mockItemStore) CreateItem(_ context.Context, arg database.CreateItemParams) (database.Item, error) {
	i := database.Item{
		ID:             uuid.New(),
		Name:           arg.Name,
		PhotoUrl:       arg.PhotoUrl,
		Description:    arg.Description,
		TrackInventory: arg.TrackInventory,
	}
	m.items[i.ID] = i
	return i, nil
}

func (m *mockItemStore) UpdateItem(_ context.Context, arg database.UpdateItemParams) (database.Item, error) {
	i, ok := m.items[arg.ID]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	i.Name = arg.Name
	i.PhotoUrl = arg.PhotoUrl
	i.Description = arg.Description
	i.TrackInventory = arg.TrackInventory
	m.items[i.ID] = i
	return i, nil
}

func (m *mockItemStore) DeleteItem(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.items[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	if m.inUse[id] {
		return uuid.Nil, &pgconn.PgError{Code: "23503"}
	}
	delete(m.items, id)
	for sid, s := range m.shades {
		if s.ItemID == id {
			delete(m.shades, sid)
		}
	}
	return id, nil
}

func (m *mockItemStore) ListShades(_ context.Context) ([]database.Shade, error) {
	result := make([]database.Shade, 0, len(m.shades))
	for _, s := range m.shades {
		result = append(result, s)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ShadeNumber < result[b].ShadeNumber })
	return result, nil
}

func (m *mockItemStore) ListShadesByItem(ctx context.Context, itemID uuid.UUID) ([]database.Shade, error) {
	all, _ := m.ListShades(ctx)
	result := []database.Shade{}
	for _, s := range all {
		if s.ItemID == itemID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockItemStore) CreateShade(_ context.Context, arg database.CreateShadeParams) (database.Shade, error) {
	s := database.Shade{
		ID:          uuid.New(),
		ItemID:      arg.ItemID,
		ShadeNumber: arg.ShadeNumber,
		ShadeName:   arg.ShadeName,
		StockCount:  arg.StockCount,
	}
	m.shades[s.ID] = s
	return s, nil
}

func (m *mockItemStore) UpdateShade(_ context.Context, arg database.UpdateShadeParams) (database.Shade, error) {
	s, ok := m.shades[arg.ID]
	if !ok || s.ItemID != arg.ItemID {
		return database.Shade{}, pgx.ErrNoRows
	}
	s.ShadeNumber = arg.ShadeNumber
	s.ShadeName = arg.ShadeName
	s.StockCount = arg.StockCount
	m.shades[s.ID] = s
	return s, nil
}

func (m *mockItemStore) DeleteShade(_ context.Context, arg database.DeleteShadeParams) (uuid.UUID, error) {
	s, ok := m.shades[arg.ID]
	if !ok || s.ItemID != arg.ItemID {
		return uuid.Nil, pgx.ErrNoRows
	}
	if m.inUse[arg.ID] {
		return uuid.Nil, &pgconn.PgError{Code: "23503"}
	}
	delete(m.shades, arg.ID)
	return arg.ID, nil
}

func (m *mockItemStore) addItem(name string, track bool) database.Item {
	i := database.Item{ID: uuid.New(), Name: name, TrackInventory: track}
	m.items[i.ID] = i
	return i
}

func (m *mockItemStore) addShade(itemID uuid.UUID, number string, stock int32) database.Shade {
	s := database.Shade{ID: uuid.New(), ItemID: itemID, ShadeNumber: number, StockCount: stock}
	m.shades[s.ID] = s
	return s
}

func setupItemRouter(store *mockItemStore, role string) http.Handler {
	h := handler.NewItemHandler(store)
	r := chi.NewRouter()
	r.Use(asActor(uuid.New(), role))
	r.Route("/items", h.RegisterRoutes)
	handler.NewCatalogueHandler(store).RegisterRoutes(r)
	return r
}

// --- Item tests ---

func TestItemList_WithShades(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk Thread", true)
	store.addShade(silk.ID, "101", 4)
	store.addShade(silk.ID, "102", 0)
	store.addItem("Cotton", true)

	rr := doJSON(t, setupItemRouter(store, enum.UserRoleSales), "GET", "/items", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	items := decodeList(t, rr)
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	if items[0]["name"] != "Cotton" {
		t.Errorf("items[0]: got %v, want Cotton", items[0]["name"])
	}
	if shades, _ := items[0]["shades"].([]interface{}); len(shades) != 0 {
		t.Errorf("Cotton shades: got %d, want 0", len(shades))
	}
	if shades, _ := items[1]["shades"].([]interface{}); len(shades) != 2 {
		t.Errorf("Silk shades: got %d, want 2", len(shades))
	}
}

func TestItemGet(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk Thread", true)
	store.addShade(silk.ID, "101", 4)
	r := setupItemRouter(store, enum.UserRoleClerk)

	rr := doJSON(t, r, "GET", "/items/"+silk.ID.String(), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if shades, _ := resp["shades"].([]interface{}); len(shades) != 1 {
		t.Errorf("shades: got %v, want 1", resp["shades"])
	}

	rr = doJSON(t, r, "GET", "/items/"+uuid.NewString(), "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing item status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestItemCreate_TracksInventoryByDefault(t *testing.T) {
	store := newMockItemStore()
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := postJSON(t, r, "/items", map[string]string{"name": "Silk Thread"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["track_inventory"] != true {
		t.Errorf("track_inventory: got %v, want true", resp["track_inventory"])
	}
}

func TestItemCreate_NameRequired(t *testing.T) {
	r := setupItemRouter(newMockItemStore(), enum.UserRoleAdmin)

	rr := postJSON(t, r, "/items", map[string]string{"description": "no name"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestItemWrite_NonAdminForbidden(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk Thread", true)

	for _, role := range []string{enum.UserRoleManager, enum.UserRoleClerk, enum.UserRoleSales} {
		t.Run(role, func(t *testing.T) {
			r := setupItemRouter(store, role)

			if rr := postJSON(t, r, "/items", map[string]string{"name": "X"}); rr.Code != http.StatusForbidden {
				t.Errorf("create status: got %d, want %d", rr.Code, http.StatusForbidden)
			}
			path := "/items/" + silk.ID.String() + "/shades"
			if rr := postJSON(t, r, path, map[string]string{"shade_number": "1"}); rr.Code != http.StatusForbidden {
				t.Errorf("create shade status: got %d, want %d", rr.Code, http.StatusForbidden)
			}
		})
	}
}

func TestItemUpdate_KeepsTrackInventoryWhenOmitted(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", false)
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := doJSON(t, r, "PUT", "/items/"+silk.ID.String(), "", map[string]string{"name": "Silk Thread"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	got := store.items[silk.ID]
	if got.Name != "Silk Thread" || got.TrackInventory {
		t.Errorf("item: got %+v", got)
	}
}

func TestItemDelete_CascadesShades(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	store.addShade(silk.ID, "101", 1)
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := doJSON(t, r, "DELETE", "/items/"+silk.ID.String(), "", nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(store.shades) != 0 {
		t.Errorf("shades: got %d, want 0", len(store.shades))
	}
}

func TestItemDelete_UsedByOrders(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	store.inUse[silk.ID] = true
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := doJSON(t, r, "DELETE", "/items/"+silk.ID.String(), "", nil)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Shade tests ---

func TestShadeCreate(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := postJSON(t, r, "/items/"+silk.ID.String()+"/shades", map[string]interface{}{
		"shade_number": " 101 ",
		"shade_name":   "Crimson",
		"stock_count":  12,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["shade_number"] != "101" {
		t.Errorf("shade_number: got %v, want 101", resp["shade_number"])
	}
	if resp["stock_count"] != float64(12) {
		t.Errorf("stock_count: got %v, want 12", resp["stock_count"])
	}
}

func TestShadeCreate_Validation(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	r := setupItemRouter(store, enum.UserRoleAdmin)
	path := "/items/" + silk.ID.String() + "/shades"

	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"missing number", map[string]interface{}{"shade_name": "Crimson"}, "shade_number is required"},
		{"negative stock", map[string]interface{}{"shade_number": "101", "stock_count": -1}, "stock_count must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, r, path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if resp := decodeResponse(t, rr); resp["error"] != tt.want {
				t.Errorf("error: got %v, want %s", resp["error"], tt.want)
			}
		})
	}
	if len(store.shades) != 0 {
		t.Errorf("shades: got %d, want 0", len(store.shades))
	}
}

func TestShadeCreate_UnknownItem(t *testing.T) {
	r := setupItemRouter(newMockItemStore(), enum.UserRoleAdmin)

	rr := postJSON(t, r, "/items/"+uuid.NewString()+"/shades", map[string]string{"shade_number": "1"})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestShadeUpdate_WrongItem(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	cotton := store.addItem("Cotton", true)
	shade := store.addShade(silk.ID, "101", 1)
	r := setupItemRouter(store, enum.UserRoleAdmin)

	rr := doJSON(t, r, "PUT", "/items/"+cotton.ID.String()+"/shades/"+shade.ID.String(), "", map[string]interface{}{
		"shade_number": "101",
		"stock_count":  5,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if store.shades[shade.ID].StockCount != 1 {
		t.Error("shade of another item was modified")
	}
}

func TestShadeDelete(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	used := store.addShade(silk.ID, "101", 1)
	free := store.addShade(silk.ID, "102", 1)
	store.inUse[used.ID] = true
	r := setupItemRouter(store, enum.UserRoleAdmin)
	base := "/items/" + silk.ID.String() + "/shades/"

	if rr := doJSON(t, r, "DELETE", base+used.ID.String(), "", nil); rr.Code != http.StatusConflict {
		t.Errorf("used shade status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if rr := doJSON(t, r, "DELETE", base+free.ID.String(), "", nil); rr.Code != http.StatusNoContent {
		t.Errorf("free shade status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(store.shades) != 1 {
		t.Errorf("shades: got %d, want 1", len(store.shades))
	}
}

// --- Catalogue tests ---

func TestCatalogue_OmitsUntrackedStock(t *testing.T) {
	store := newMockItemStore()
	silk := store.addItem("Silk", true)
	store.addShade(silk.ID, "101", 7)
	buttons := store.addItem("Buttons", false)
	store.addShade(buttons.ID, "B1", 3)

	rr := doJSON(t, setupItemRouter(store, enum.UserRoleSales), "GET", "/catalogue", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	items := decodeList(t, rr)
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	for _, item := range items {
		shades := item["shades"].([]interface{})
		if len(shades) != 1 {
			t.Fatalf("%v shades: got %d, want 1", item["name"], len(shades))
		}
		shade := shades[0].(map[string]interface{})
		_, hasStock := shade["stock_count"]
		switch item["name"] {
		case "Silk":
			if !hasStock || shade["stock_count"] != float64(7) {
				t.Errorf("Silk stock_count: got %v, want 7", shade["stock_count"])
			}
		case "Buttons":
			if hasStock {
				t.Errorf("Buttons stock_count: got %v, want omitted", shade["stock_count"])
			}
		}
	}
}
