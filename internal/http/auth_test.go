package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	c := newClient(t)

	resp := c.login(customerEmail, "wrongpass!")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Invalid email or password") {
		t.Fatalf("login error not shown: %s", body)
	}

	resp = c.login(customerEmail, testPassword)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on success, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("customer landed on %q", loc)
	}
	if c.cookies["sid"] == "" {
		t.Fatal("sid cookie not issued")
	}

	var me struct {
		LoggedIn bool   `json:"loggedIn"`
		Role     string `json:"role"`
		Email    string `json:"email"`
	}
	if st := c.api(http.MethodGet, "/api/v1/me", nil, &me); st != http.StatusOK || !me.LoggedIn || me.Role != "CUSTOMER" {
		t.Fatalf("me after login: %d %+v", st, me)
	}

	// five attempts per window; the sixth is throttled
	for i := 0; i < 3; i++ {
		c.login(customerEmail, "wrongpass!")
	}
	resp = c.login(customerEmail, testPassword)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestLoginRedirects(t *testing.T) {
	c := newClient(t)
	resp := c.login(vendorEmail, testPassword)
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("vendor landed on %q", loc)
	}

	c2 := c.newBrowser()
	resp = c2.post("/login", url.Values{"email": {customerEmail}, "password": {testPassword}, "next": {"/orders"}})
	if loc := resp.Header.Get("Location"); loc != "/orders" {
		t.Fatalf("next ignored: %q", loc)
	}

	c3 := c.newBrowser()
	resp = c3.post("/login", url.Values{"email": {customerEmail}, "password": {testPassword}, "next": {"//evil.example"}})
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("off-site next followed: %q", loc)
	}
}

func TestLoginMissingPassword(t *testing.T) {
	c := newClient(t)
	resp := c.login(customerEmail, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "password is required") {
		t.Fatalf("missing field message: %s", body)
	}
}

func TestLoginMarketDown(t *testing.T) {
	c := newClient(t)
	c.market.setDown(true)
	resp := c.login(customerEmail, testPassword)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Login is unavailable") {
		t.Fatalf("unavailable message missing: %s", body)
	}
}

func TestLogoutKeepsOrderHistory(t *testing.T) {
	c := newClient(t)
	c.mustLogin(customerEmail)
	sid := c.cookies["sid"]
	id := placeOrder(t, c, "")

	resp := c.post("/logout", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout status %d", resp.StatusCode)
	}
	if c.cookies["sid"] != sid {
		t.Fatal("logout replaced the namespace cookie")
	}
	resp = c.get("/orders")
	if resp.StatusCode != http.StatusFound || !strings.HasPrefix(resp.Header.Get("Location"), "/login") {
		t.Fatalf("orders after logout: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	c.mustLogin(customerEmail)
	if body := readBody(t, c.get("/orders")); !strings.Contains(body, id) {
		t.Fatalf("order %s missing after re-login", id)
	}
}

func TestRegisterVendor(t *testing.T) {
	c := newClient(t)
	form := func(email, pw, confirm string) url.Values {
		return url.Values{
			"name": {"Kabir"}, "email": {email}, "shopName": {"Kabir Kloset"},
			"password": {pw}, "confirmPassword": {confirm},
		}
	}

	resp := c.post("/register", form("kabir@example.com", "secret1", "secret2"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatch: expected 400, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "passwords do not match") {
		t.Fatalf("mismatch message missing: %s", body)
	}
	if strings.Contains(body, "secret1") {
		t.Fatal("password echoed back into the form")
	}

	resp = c.post("/register", form(vendorEmail, "secret1", "secret1"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}

	resp = c.post("/register", form("kabir@example.com", "secret1", "secret1"))
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("register: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp := c.get("/dashboard"); resp.StatusCode != http.StatusOK {
		t.Fatalf("new vendor dashboard: %d", resp.StatusCode)
	}
}
