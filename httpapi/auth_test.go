package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func registerUser(t *testing.T, ts *testServer, username, email, password string) string {
	t.Helper()

	body := `{"username":"` + username + `","email":"` + email + `","password":"` + password + `"}`
	rec := ts.do(http.MethodPost, "/api/users", "", []byte(body))
	mustStatus(t, rec, http.StatusCreated)

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("register response has no id")
	}
	return created.ID
}

func TestLoginIssuesUsableToken(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "alice@example.com", "correct horse battery")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.SetBasicAuth("alice@example.com", "correct horse battery")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}

	me := ts.do(http.MethodGet, "/api/me", resp.Token, nil)
	mustStatus(t, me, http.StatusOK)
	if !strings.Contains(me.Body.String(), "alice@example.com") {
		t.Fatalf("profile body = %s, want it to carry the email", me.Body.String())
	}
	if strings.Contains(me.Body.String(), "password") {
		t.Fatalf("profile body leaks the password field: %s", me.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "alice@example.com", "correct horse battery")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "not the password"},
		{"unknown email", "nobody@example.com", "correct horse battery"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.SetBasicAuth(tc.email, tc.password)
			rec := httptest.NewRecorder()
			ts.Handler().ServeHTTP(rec, req)
			mustStatus(t, rec, http.StatusUnauthorized)
			if !strings.Contains(rec.Body.String(), "Unauthorized") {
				t.Fatalf("body = %s, want an Unauthorized error", rec.Body.String())
			}
		})
	}
}

func TestAuthGateBlocksBeforeHandlers(t *testing.T) {
	ts := newTestServer(t)

	for _, token := range []string{"", "not-a-real-token"} {
		rec := ts.do(http.MethodGet, "/api/me/recipes", token, nil)
		mustStatus(t, rec, http.StatusUnauthorized)
	}
	if got := ts.recipes.listCalls.Load(); got != 0 {
		t.Fatalf("handler ran %d times behind a failed gate, want 0", got)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	ts := newTestServer(t)
	id := registerUser(t, ts, "alice", "alice@example.com", "correct horse battery")
	token := ts.login(t, id)

	mustStatus(t, ts.do(http.MethodGet, "/api/me", token, nil), http.StatusOK)
	mustStatus(t, ts.do(http.MethodGet, "/api/auth/logout", token, nil), http.StatusOK)
	mustStatus(t, ts.do(http.MethodGet, "/api/me", token, nil), http.StatusUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"username":"alice","email":"not-an-email","password":"correct horse"}`},
		{"short password", `{"username":"alice","email":"alice@example.com","password":"short"}`},
		{"missing username", `{"email":"alice@example.com","password":"correct horse"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/users", "", []byte(tc.body))
			mustStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "alice@example.com", "correct horse battery")

	rec := ts.do(http.MethodPost, "/api/users", "",
		[]byte(`{"username":"alice2","email":"alice@example.com","password":"correct horse battery"}`))
	mustStatus(t, rec, http.StatusBadRequest)
}
