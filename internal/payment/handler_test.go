// AngelaMos | 2026
// handler_test.go

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
)

type tokenAsEmail struct{}

func (tokenAsEmail) VerifyAccessToken(_ context.Context, token string) (*middleware.Identity, error) {
	if !strings.Contains(token, "@") {
		return nil, core.ErrTokenInvalid
	}
	return &middleware.Identity{Email: token}, nil
}

func newTestRouter(svc *Service) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, middleware.RequireToken(tokenAsEmail{}).Middleware)
	return r
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

func TestCreateIntentRoute(t *testing.T) {
	t.Run("returns client secret", func(t *testing.T) {
		r := newTestRouter(newTestService(&memoryPayments{}, newMemoryCarts(), &mockGateway{}, nil))

		rec := do(r, http.MethodPost, "/create-payment-intent", "a@x.com", `{"price":19.99}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}

		var resp IntentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.ClientSecret != "pi_1_secret" {
			t.Errorf("clientSecret = %q", resp.ClientSecret)
		}
	})

	t.Run("gateway failure is 502", func(t *testing.T) {
		gw := &mockGateway{CreateFunc: func(context.Context, ChargeRequest) (*ChargeIntent, error) {
			return nil, errors.New("provider unavailable")
		}}
		r := newTestRouter(newTestService(&memoryPayments{}, newMemoryCarts(), gw, nil))

		rec := do(r, http.MethodPost, "/create-payment-intent", "a@x.com", `{"price":5}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("gateway failure logs through service logger", func(t *testing.T) {
		var buf bytes.Buffer
		gw := &mockGateway{CreateFunc: func(context.Context, ChargeRequest) (*ChargeIntent, error) {
			return nil, errors.New("provider unavailable")
		}}
		svc := NewService(&memoryPayments{}, newMemoryCarts(), gw, nil,
			ServiceConfig{Currency: "usd"}, slog.New(slog.NewTextHandler(&buf, nil)))

		do(newTestRouter(svc), http.MethodPost, "/create-payment-intent", "a@x.com", `{"price":5}`)

		if out := buf.String(); !strings.Contains(out, "payment gateway error") || !strings.Contains(out, "provider=mock") {
			t.Errorf("log = %q", out)
		}
	})

	t.Run("requires token", func(t *testing.T) {
		r := newTestRouter(newTestService(&memoryPayments{}, newMemoryCarts(), &mockGateway{}, nil))

		if rec := do(r, http.MethodPost, "/create-payment-intent", "", `{"price":5}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("rejects zero price", func(t *testing.T) {
		r := newTestRouter(newTestService(&memoryPayments{}, newMemoryCarts(), &mockGateway{}, nil))

		if rec := do(r, http.MethodPost, "/create-payment-intent", "a@x.com", `{"price":0}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRecordPaymentRoute(t *testing.T) {
	payments := &memoryPayments{}
	carts := newMemoryCarts(cart1, cart3)
	r := newTestRouter(newTestService(payments, carts, &mockGateway{}, nil))

	body := `{"email":"a@x.com","price":12.5,"transactionId":"pi_route",` +
		`"cartIds":["` + cart1 + `","` + cart2 + `","` + cart3 + `"]}`

	if rec := do(r, http.MethodPost, "/payment", "b@x.com", body); rec.Code != http.StatusForbidden {
		t.Fatalf("other caller: status = %d, want 403", rec.Code)
	}

	rec := do(r, http.MethodPost, "/payment", "a@x.com", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp SettlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != OutcomeSettled || resp.DeleteResult.DeletedCount != 2 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.MissingIDs) != 1 || resp.MissingIDs[0] != cart2 {
		t.Errorf("missingIds = %v", resp.MissingIDs)
	}

	if dup := do(r, http.MethodPost, "/payment", "a@x.com", body); dup.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", dup.Code)
	}

	if bad := do(r, http.MethodPost, "/payment", "a@x.com", `{"price":1,"transactionId":"x","cartIds":["nope"]}`); bad.Code != http.StatusBadRequest {
		t.Errorf("bad cart id: status = %d, want 400", bad.Code)
	}
}

func TestRecordPaymentRouteKeepsForeignCart(t *testing.T) {
	carts := newMemoryCarts(cart1)
	r := newTestRouter(newTestService(&memoryPayments{}, carts, &mockGateway{}, nil))

	body := `{"price":3,"transactionId":"pi_other","cartIds":["` + cart1 + `"]}`
	rec := do(r, http.MethodPost, "/payment", "b@x.com", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp SettlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DeleteResult.DeletedCount != 0 {
		t.Errorf("deletedCount = %d, want 0", resp.DeleteResult.DeletedCount)
	}
	if len(resp.MissingIDs) != 1 || resp.MissingIDs[0] != cart1 {
		t.Errorf("missingIds = %v, want [%s]", resp.MissingIDs, cart1)
	}
	if _, ok := carts.ids[cart1]; !ok {
		t.Errorf("cart entry owned by a@x.com was deleted")
	}
}

func TestListPaymentsRoute(t *testing.T) {
	payments := &memoryPayments{records: []Record{
		{ID: "p1", Email: "a@x.com", TransactionID: "t1"},
		{ID: "p2", Email: "b@x.com", TransactionID: "t2"},
	}}
	r := newTestRouter(newTestService(payments, newMemoryCarts(), &mockGateway{}, nil))

	rec := do(r, http.MethodGet, "/payment?email=a@x.com", "a@x.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var list []RecordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != "p1" {
		t.Errorf("list = %+v", list)
	}

	if rec := do(r, http.MethodGet, "/payment?email=a@x.com", "b@x.com", ""); rec.Code != http.StatusForbidden {
		t.Errorf("other caller: status = %d, want 403", rec.Code)
	}
}
