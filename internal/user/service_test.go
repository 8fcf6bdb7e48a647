// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

// memoryRepository is an in-memory Repository keyed by id.
type memoryRepository struct {
	mu    sync.Mutex
	users map[string]*User
	err   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: map[string]*User{}}
}

func (m *memoryRepository) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepository) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memoryRepository) SetRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Role = &role
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func register(t *testing.T, svc *Service, email string) string {
	t.Helper()

	resp, err := svc.Register(context.Background(), CreateUserRequest{Email: email})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	if resp.InsertedID == nil {
		t.Fatalf("Register(%s) did not insert", email)
	}
	return *resp.InsertedID
}

func TestRegisterIsIdempotentPerEmail(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)

	register(t, svc, "a@x.com")

	resp, err := svc.Register(context.Background(), CreateUserRequest{Email: "A@X.com"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.InsertedID != nil {
		t.Fatalf("second registration inserted %q", *resp.InsertedID)
	}
	if resp.Message != "user already exists" {
		t.Errorf("Message = %q", resp.Message)
	}
	if len(repo.users) != 1 {
		t.Errorf("users = %d, want 1", len(repo.users))
	}
}

func TestRegisterPropagatesStoreErrors(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("connection reset")

	_, err := NewService(repo).Register(context.Background(), CreateUserRequest{Email: "a@x.com"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGrantAdmin(t *testing.T) {
	svc := NewService(newMemoryRepository())
	id := register(t, svc, "a@x.com")

	first, err := svc.GrantAdmin(context.Background(), id)
	if err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}
	if *first != (UpdateResult{MatchedCount: 1, ModifiedCount: 1}) {
		t.Errorf("first grant = %+v", *first)
	}

	second, err := svc.GrantAdmin(context.Background(), id)
	if err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}
	if *second != (UpdateResult{MatchedCount: 1, ModifiedCount: 0}) {
		t.Errorf("second grant = %+v", *second)
	}

	admin, err := svc.IsAdmin(context.Background(), "a@x.com")
	if err != nil || !admin {
		t.Fatalf("IsAdmin = %v, %v; want true", admin, err)
	}
}

func TestGrantAdminUnknownUser(t *testing.T) {
	svc := NewService(newMemoryRepository())

	_, err := svc.GrantAdmin(context.Background(), "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetRole(t *testing.T) {
	svc := NewService(newMemoryRepository())
	register(t, svc, "plain@x.com")

	tests := []struct {
		email string
		want  string
	}{
		{"plain@x.com", RoleNone},
		{"ghost@x.com", RoleNone},
	}

	for _, tt := range tests {
		got, err := svc.GetRole(context.Background(), tt.email)
		if err != nil {
			t.Fatalf("GetRole(%s): %v", tt.email, err)
		}
		if got != tt.want {
			t.Errorf("GetRole(%s) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestDeleteUser(t *testing.T) {
	svc := NewService(newMemoryRepository())
	id := register(t, svc, "a@x.com")

	res, err := svc.DeleteUser(context.Background(), id)
	if err != nil || res.DeletedCount != 1 {
		t.Fatalf("DeleteUser = %+v, %v", res, err)
	}

	if _, err := svc.DeleteUser(context.Background(), id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}
