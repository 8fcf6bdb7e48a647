// AngelaMos | 2026
// handler_test.go

package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
)

const menuID = "5b1a9f0e-6a4f-4c55-9a0b-2f7f4f0d2a11"

type memoryRepository struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{entries: map[string]Entry{}}
}

func (m *memoryRepository) Create(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = *e
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return &e, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepository) ListByOwner(_ context.Context, email string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.Email == email {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryRepository) DeleteMany(_ context.Context, owner string, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := []string{}
	for _, id := range ids {
		if e, ok := m.entries[id]; ok && e.Email == owner {
			delete(m.entries, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

type tokenAsEmail struct{}

func (tokenAsEmail) VerifyAccessToken(_ context.Context, token string) (*middleware.Identity, error) {
	if !strings.Contains(token, "@") {
		return nil, core.ErrTokenInvalid
	}
	return &middleware.Identity{Email: token}, nil
}

func newTestRouter() (*chi.Mux, *memoryRepository) {
	repo := newMemoryRepository()
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterRoutes(
		r,
		middleware.RequireToken(tokenAsEmail{}).Middleware,
	)
	return r, repo
}

func do(r http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func addItem(t *testing.T, r http.Handler, token string) string {
	t.Helper()

	body := `{"menuId":"` + menuID + `","name":"Caesar Salad","price":9.5}`
	rec := do(r, http.MethodPost, "/carts", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body)
	}

	var res InsertResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.InsertedID
}

func TestListCartOwnership(t *testing.T) {
	r, _ := newTestRouter()
	addItem(t, r, "a@x.com")
	addItem(t, r, "a@x.com")

	t.Run("own cart", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/carts?email=a@x.com", "a@x.com", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var entries []EntryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(entries))
		}
	})

	t.Run("someone else's cart", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/carts?email=a@x.com", "b@x.com", "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}

		var body core.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != "forbidden access" {
			t.Errorf("message = %q", body.Message)
		}
	})

	t.Run("no token", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/carts?email=a@x.com", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("no email yields empty list", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/carts", "a@x.com", "")
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
		}
	})
}

func TestAddItemOwner(t *testing.T) {
	r, repo := newTestRouter()

	id := addItem(t, r, "A@x.com")
	if got := repo.entries[id].Email; got != "a@x.com" {
		t.Errorf("owner = %q, want caller a@x.com", got)
	}

	body := `{"menuId":"` + menuID + `","email":"b@x.com","name":"Soup","price":4}`
	if rec := do(r, http.MethodPost, "/carts", "a@x.com", body); rec.Code != http.StatusForbidden {
		t.Errorf("adding to another cart: status = %d, want 403", rec.Code)
	}

	if rec := do(r, http.MethodPost, "/carts", "a@x.com", `{"name":"Soup"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing menuId: status = %d, want 400", rec.Code)
	}
}

func TestRemoveItem(t *testing.T) {
	r, repo := newTestRouter()
	id := addItem(t, r, "a@x.com")

	tests := []struct {
		name       string
		target     string
		token      string
		wantStatus int
	}{
		{"no token", "/carts/" + id, "", http.StatusUnauthorized},
		{"not the owner", "/carts/" + id, "b@x.com", http.StatusForbidden},
		{"malformed id", "/carts/abc", "a@x.com", http.StatusNotFound},
		{"owner", "/carts/" + id, "a@x.com", http.StatusOK},
		{"already gone", "/carts/" + id, "a@x.com", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodDelete, tt.target, tt.token, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if len(repo.entries) != 0 {
		t.Errorf("entries left = %d, want 0", len(repo.entries))
	}
}
