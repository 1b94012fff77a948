package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/tests"
	"github.com/prompthash/marketplace/pkg/identity"
)

func setup(t *testing.T) (*tests.Test, http.Handler) {
	test := tests.New()

	m := market.New(test.MasterDB, test.Tokens, test.Payments, test.Bus, test.Operator)
	if err := m.Bootstrap(test.Context, test.Admin, test.FeeRecipient, 500); err != nil {
		t.Fatalf("Failed to bootstrap market : %s", err)
	}

	return test, API(m, test.Payments, test.MasterDB, true)
}

func request(t *testing.T, h http.Handler, method, path string,
	caller identity.Address, body interface{}) *httptest.ResponseRecorder {

	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body : %s", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if !caller.IsZero() {
		r.Header.Set(identityHeader, caller.String())
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRoutesSettlement(t *testing.T) {
	test, h := setup(t)
	seller := identity.New()

	w := request(t, h, "POST", "/records", seller, map[string]interface{}{
		"price": 10000,
		"title": "prompt",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Wrong status for create : got %d, want %d : %s",
			w.Code, http.StatusCreated, w.Body.String())
	}

	var created createRecordResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create response : %s", err)
	}
	if created.ID != 0 {
		t.Fatalf("Wrong id : got %d, want 0", created.ID)
	}

	w = request(t, h, "GET", "/records/0", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for get : got %d", w.Code)
	}

	w = request(t, h, "POST", "/records/0/list", seller,
		map[string]interface{}{"price": 10000})
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for list : got %d : %s", w.Code, w.Body.String())
	}

	// Fund the buyer through the test mode faucet routes.
	buyer := identity.New()
	w = request(t, h, "POST", "/funds/credit", buyer,
		map[string]interface{}{"amount": 10000})
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for credit : got %d", w.Code)
	}
	w = request(t, h, "POST", "/funds/approve", buyer, map[string]interface{}{
		"spender": test.Operator.String(),
		"amount":  10000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for approve : got %d", w.Code)
	}

	w = request(t, h, "POST", "/records/0/buy", buyer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for buy : got %d : %s", w.Code, w.Body.String())
	}

	w = request(t, h, "GET", fmt.Sprintf("/funds/%s", seller), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status for balance : got %d", w.Code)
	}
	var balance map[string]uint64
	if err := json.NewDecoder(w.Body).Decode(&balance); err != nil {
		t.Fatalf("Failed to decode balance : %s", err)
	}
	if balance["balance"] != 9500 {
		t.Fatalf("Wrong seller balance : got %d, want 9500", balance["balance"])
	}
}

func TestRoutesErrorMapping(t *testing.T) {
	_, h := setup(t)

	// Non numeric ids never reach a handler.
	w := request(t, h, "GET", "/records/abc", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Wrong status for bad id : got %d", w.Code)
	}

	// Missing identity header on a mutating route.
	w = request(t, h, "POST", "/records", "", map[string]interface{}{"price": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Wrong status for missing identity : got %d", w.Code)
	}

	// Absent record.
	w = request(t, h, "POST", "/records/7/buy", identity.New(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Wrong status for absent record : got %d", w.Code)
	}

	// Wrong method on a known path.
	w = request(t, h, "DELETE", "/records", identity.New(), nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Wrong status for bad method : got %d", w.Code)
	}
}
