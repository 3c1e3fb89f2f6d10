package unanet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/unanetx/internal/shared"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /platform/rest/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Username != "user" || req.Password != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"abc123"}`))
	})

	authorized := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer abc123" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("GET /platform/rest/projects/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"key":7,"code":"P-7","billingCurrency":{"code":"USD"}}`))
	}))
	mux.HandleFunc("GET /platform/rest/projects/{id}/fixed-price-items", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageSize") != "1500" {
			http.Error(w, "bad page size", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"items":[{"key":1,"amount":1000.50},{"key":2,"amount":250}]}`))
	}))
	mux.HandleFunc("GET /platform/rest/invoices/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	mux.HandleFunc("GET /platform/rest/people", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("active") != "true" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(`{"items":[{"key":1,"firstName":"Ada"}]}`))
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, username, password string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:    srv.URL + "/",
		Username:   username,
		Password:   password,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("NewClient requires a base URL", func(t *testing.T) {
		_, err := NewClient(Config{})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv := newTestServer(t)

		t.Run("Success", func(t *testing.T) {
			c := newTestClient(t, srv, "user", "secret")
			if err := c.Authenticate(ctx); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			if !c.Authenticated() {
				t.Error("expected client to be authenticated")
			}
		})

		t.Run("Wrong Password", func(t *testing.T) {
			c := newTestClient(t, srv, "user", "wrong")
			err := c.Authenticate(ctx)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if c.Authenticated() {
				t.Error("expected client to stay unauthenticated")
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			c := newTestClient(t, srv, "", "")
			if err := c.Authenticate(ctx); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Empty Token", func(t *testing.T) {
			empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer empty.Close()

			c, _ := NewClient(Config{BaseURL: empty.URL, Username: "u", Password: "p"})
			if err := c.Authenticate(ctx); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		srv := newTestServer(t)
		c := newTestClient(t, srv, "user", "secret")

		t.Run("Not Authenticated", func(t *testing.T) {
			_, err := c.Project(ctx, 7)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		if err := c.Authenticate(ctx); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		t.Run("Project", func(t *testing.T) {
			rec, err := c.Project(ctx, 7)
			if err != nil {
				t.Fatalf("Project failed: %v", err)
			}
			if rec["code"] != "P-7" {
				t.Errorf("expected code P-7, got %v", rec["code"])
			}
			if n, ok := rec["key"].(json.Number); !ok || n.String() != "7" {
				t.Errorf("expected key as json.Number 7, got %#v", rec["key"])
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			_, err := c.Project(ctx, 8)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			_, err := c.Invoice(ctx, 1)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if errors.Is(err, shared.ErrNotFound) {
				t.Error("server error must not look like not found")
			}
		})

		t.Run("Fixed Price Items", func(t *testing.T) {
			items, err := c.FixedPriceItems(ctx, 7)
			if err != nil {
				t.Fatalf("FixedPriceItems failed: %v", err)
			}
			if len(items) != 2 {
				t.Fatalf("expected 2 items, got %d", len(items))
			}
			if items[0]["amount"].(json.Number).String() != "1000.50" {
				t.Errorf("expected amount text preserved, got %v", items[0]["amount"])
			}
		})

		t.Run("People", func(t *testing.T) {
			people, err := c.People(ctx, "?page=0&pageSize=2000&active=true")
			if err != nil {
				t.Fatalf("People failed: %v", err)
			}
			if len(people) != 1 || people[0]["firstName"] != "Ada" {
				t.Errorf("unexpected people: %v", people)
			}
		})
	})
}

func TestScheduleRow(t *testing.T) {
	project := Record{
		"code":            "P-7",
		"billingCurrency": map[string]any{"code": "USD"},
		"owningOrg":       map[string]any{"code": "ORG"},
	}
	item := Record{"key": json.Number("3"), "amount": json.Number("10.00"), "billDate": "2024-05-01"}

	row := ScheduleRow(7, project, item)
	if row["project_id"] != 7 || row["billing_currency"] != "USD" || row["owning_org"] != "ORG" {
		t.Errorf("unexpected project fields: %v", row)
	}
	if row["project_org"] != nil {
		t.Errorf("expected nil for missing nested code, got %v", row["project_org"])
	}
	if row["item_key"] != json.Number("3") || row["bill_date"] != "2024-05-01" {
		t.Errorf("unexpected item fields: %v", row)
	}
	if len(row) != len(ScheduleColumns) {
		t.Errorf("expected %d columns, got %d", len(ScheduleColumns), len(row))
	}
}
