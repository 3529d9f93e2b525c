package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shadestock/api/internal/auth"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/handler"
	"github.com/shadestock/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	userByKey map[string]database.User
	userByID  map[uuid.UUID]database.User
}

func newMockStore() *mockAuthStore {
	return &mockAuthStore{
		userByKey: make(map[string]database.User),
		userByID:  make(map[uuid.UUID]database.User),
	}
}

func (m *mockAuthStore) addUser(u database.User) {
	m.userByKey[u.UsernameKey] = u
	m.userByID[u.ID] = u
}

func (m *mockAuthStore) removeUser(id uuid.UUID) {
	u := m.userByID[id]
	delete(m.userByKey, u.UsernameKey)
	delete(m.userByID, id)
}

func (m *mockAuthStore) GetUserByUsernameKey(_ context.Context, key string) (database.User, error) {
	u, ok := m.userByKey[key]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.userByID[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func makeTestUser(t *testing.T) database.User {
	t.Helper()
	return database.User{
		ID:           uuid.New(),
		Username:     "Budi",
		UsernameKey:  auth.UsernameKey("Budi"),
		PasswordHash: hashPassword(t, "correct-password"),
		FullName:     "Budi Santoso",
		Role:         enum.UserRoleClerk,
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, router, "POST", path, "", body)
}

// doJSON sends a request with an optional bearer token. A nil body sends
// no body at all.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// asActor injects claims for the given user, standing in for
// middleware.Authenticate in handler tests.
func asActor(id uuid.UUID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &auth.Claims{UserID: id, Role: role, SessionID: "test"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type authFixture struct {
	store    *mockAuthStore
	sessions *auth.MemorySessionStore
	router   http.Handler
	user     database.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := newMockStore()
	user := makeTestUser(t)
	store.addUser(user)
	sessions := auth.NewMemorySessionStore(0)

	h := handler.NewAuthHandler(auth.NewGate(store, sessions), testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret, sessions))
		h.RegisterSessionRoutes(r)
	})

	return &authFixture{store: store, sessions: sessions, router: r, user: user}
}

func (f *authFixture) login(t *testing.T) map[string]interface{} {
	t.Helper()
	rr := postJSON(t, f.router, "/auth/login", map[string]string{
		"username": f.user.Username,
		"password": "correct-password",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	return decodeResponse(t, rr)
}

// --- Username step tests ---

func TestCheckUsername_CaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/username", map[string]string{"username": "  bUDI "})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["username"] != "Budi" {
		t.Errorf("username: got %v, want Budi", resp["username"])
	}
	if _, ok := resp["password_hash"]; ok {
		t.Error("response must not include password_hash")
	}
}

func TestCheckUsername_NotFound(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/username", map[string]string{"username": "nobody"})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "username not found" {
		t.Errorf("error: got %v, want username not found", resp["error"])
	}
}

func TestCheckUsername_Empty(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/username", map[string]string{"username": "   "})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Login tests ---

func TestLogin_ValidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.login(t)

	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
	if resp["refresh_token"] == nil || resp["refresh_token"] == "" {
		t.Error("expected non-empty refresh_token")
	}

	userResp, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatal("expected user object in response")
	}
	if userResp["full_name"] != "Budi Santoso" {
		t.Errorf("user full_name: got %v, want Budi Santoso", userResp["full_name"])
	}
	if userResp["role"] != enum.UserRoleClerk {
		t.Errorf("user role: got %v, want %s", userResp["role"], enum.UserRoleClerk)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/login", map[string]string{
		"username": "budi",
		"password": "Correct-Password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/login", map[string]string{
		"username": "nobody",
		"password": "password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "invalid credentials" {
		t.Errorf("error: got %v, want invalid credentials", resp["error"])
	}
}

func TestLogin_MissingFields(t *testing.T) {
	f := newAuthFixture(t)

	rr := postJSON(t, f.router, "/auth/login", map[string]string{"username": "budi"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Refresh tests ---

func TestRefresh_ValidToken(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t)

	rr := postJSON(t, f.router, "/auth/refresh", map[string]string{
		"refresh_token": login["refresh_token"].(string),
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t)

	rr := postJSON(t, f.router, "/auth/refresh", map[string]string{
		"refresh_token": login["access_token"].(string),
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_AfterLogout(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t)

	rr := doJSON(t, f.router, "POST", "/auth/logout", login["access_token"].(string), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout status: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = postJSON(t, f.router, "/auth/refresh", map[string]string{
		"refresh_token": login["refresh_token"].(string),
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Session tests ---

func TestMe_ReturnsUser(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t)

	rr := doJSON(t, f.router, "GET", "/auth/me", login["access_token"].(string), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["id"] != f.user.ID.String() {
		t.Errorf("id: got %v, want %s", resp["id"], f.user.ID)
	}
}

func TestMe_DeletedUserDiscardsSession(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t)
	f.store.removeUser(f.user.ID)

	rr := doJSON(t, f.router, "GET", "/auth/me", login["access_token"].(string), nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	// the session is gone, so the token is rejected by the middleware too
	rr = doJSON(t, f.router, "GET", "/me/navigation", login["access_token"].(string), nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status after discard: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogout_RequiresToken(t *testing.T) {
	f := newAuthFixture(t)

	rr := doJSON(t, f.router, "POST", "/auth/logout", "", nil)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		role    string
		landing string
		menu    []string
	}{
		{enum.UserRoleAdmin, enum.PageInventory, []string{enum.PageInventory, enum.PageCatalogue, enum.PageOrders, enum.PageClients, enum.PageUsers}},
		{enum.UserRoleManager, enum.PageOrders, []string{enum.PageInventory, enum.PageCatalogue, enum.PageOrders}},
		{enum.UserRoleSales, enum.PageOrders, []string{enum.PageInventory, enum.PageCatalogue, enum.PageOrders}},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			h := handler.NewAuthHandler(nil, testSecret)
			r := chi.NewRouter()
			r.Use(asActor(uuid.New(), tt.role))
			h.RegisterSessionRoutes(r)

			rr := doJSON(t, r, "GET", "/me/navigation", "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
			}

			resp := decodeResponse(t, rr)
			if resp["landing_page"] != tt.landing {
				t.Errorf("landing_page: got %v, want %s", resp["landing_page"], tt.landing)
			}
			menu, _ := resp["menu"].([]interface{})
			if len(menu) != len(tt.menu) {
				t.Fatalf("menu: got %v, want %v", menu, tt.menu)
			}
			for i, m := range tt.menu {
				if menu[i] != m {
					t.Errorf("menu[%d]: got %v, want %s", i, menu[i], m)
				}
			}
		})
	}
}
