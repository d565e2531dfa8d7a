package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/config"
	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/events"
	"thriftbazaar/internal/http/handlers"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/storage"
	"thriftbazaar/web"
)

const (
	customerEmail = "meera@example.com"
	vendorEmail   = "vera@example.com"
	testPassword  = "secret1"
)

type fakeUser struct {
	id, email, name, password, shop string
	role                            domain.Role
}

// fakeMarket is an in-memory market API. Tokens are real HS256 JWTs so the
// storefront can read roles from them.
type fakeMarket struct {
	mu       sync.Mutex
	users    map[string]*fakeUser
	tokens   map[string]string
	products []domain.Product
	down     bool
}

func newFakeMarket() *fakeMarket {
	m := &fakeMarket{users: map[string]*fakeUser{}, tokens: map[string]string{}}
	m.users[customerEmail] = &fakeUser{id: "u-meera", email: customerEmail, name: "Meera", password: testPassword, role: domain.RoleCustomer}
	m.users[vendorEmail] = &fakeUser{id: "v-vera", email: vendorEmail, name: "Vera", password: testPassword, role: domain.RoleVendor, shop: "Vera Vintage"}
	m.products = []domain.Product{
		{
			ID: "p-1", Name: "Denim Jacket", Price: decimal.NewFromInt(1000),
			Category: domain.CategoryJackets, Condition: domain.ConditionGood,
			Images: []string{"https://img.example/1.jpg"}, VendorID: "v-vera", Seller: "Vera Vintage",
		},
		{
			ID: "p-2", Name: "Linen Shirt", Price: decimal.NewFromInt(1832),
			Category: domain.CategoryShirts, Condition: domain.ConditionExcellent,
			Images: []string{"https://img.example/2.jpg"}, VendorID: "v-vera", Seller: "Vera Vintage",
		},
	}
	return m
}

func (m *fakeMarket) issue(u *fakeUser) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.id, "email": u.email, "name": u.name, "role": string(u.role),
	}).SignedString([]byte("test-secret"))
	m.tokens[tok] = u.email
	return tok
}

// user must be called with mu held.
func (m *fakeMarket) user(token string) (*fakeUser, error) {
	if m.down {
		return nil, domain.ErrUnavailable
	}
	email, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	return m.users[email], nil
}

func (m *fakeMarket) setDown(down bool) {
	m.mu.Lock()
	m.down = down
	m.mu.Unlock()
}

func (m *fakeMarket) add(p domain.Product) {
	m.mu.Lock()
	m.products = append(m.products, p)
	m.mu.Unlock()
}

func (m *fakeMarket) byName(name string) (domain.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (m *fakeMarket) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, domain.ErrUnavailable
	}
	var out []domain.Product
	for _, p := range m.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
			continue
		}
		if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *fakeMarket) GetProduct(_ context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return domain.Product{}, domain.ErrUnavailable
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (m *fakeMarket) Login(_ context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", domain.ErrUnavailable
	}
	u, ok := m.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return "", domain.ErrBadCreds
	}
	return m.issue(u), nil
}

func (m *fakeMarket) RegisterVendor(_ context.Context, reg domain.VendorRegistration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(reg.Email)
	if _, ok := m.users[email]; ok {
		return "", domain.ErrEmailTaken
	}
	u := &fakeUser{
		id: fmt.Sprintf("v-%d", len(m.users)+1), email: email, name: reg.Name,
		password: reg.Password, role: domain.RoleVendor, shop: reg.ShopName,
	}
	m.users[email] = u
	return m.issue(u), nil
}

func (m *fakeMarket) MyProducts(_ context.Context, token string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range m.products {
		if p.VendorID == u.id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *fakeMarket) CreateProduct(_ context.Context, token string, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return domain.Product{}, err
	}
	if u.role != domain.RoleVendor {
		return domain.Product{}, domain.ErrForbidden
	}
	p.ID = fmt.Sprintf("p-%d", len(m.products)+1)
	p.VendorID = u.id
	p.Seller = u.shop
	m.products = append(m.products, p)
	return p, nil
}

func (m *fakeMarket) UpdateProduct(_ context.Context, token, id string, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return domain.Product{}, err
	}
	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		if m.products[i].VendorID != u.id {
			return domain.Product{}, domain.ErrForbidden
		}
		p.ID, p.VendorID, p.Seller = id, u.id, u.shop
		m.products[i] = p
		return p, nil
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (m *fakeMarket) DeleteProduct(_ context.Context, token, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return err
	}
	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		if m.products[i].VendorID != u.id {
			return domain.ErrForbidden
		}
		m.products = append(m.products[:i], m.products[i+1:]...)
		return nil
	}
	return domain.ErrProductNotFound
}

func (m *fakeMarket) UploadImage(_ context.Context, token, filename string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.user(token); err != nil {
		return "", err
	}
	return "/media/uploads/" + filename, nil
}

func (m *fakeMarket) CurrentVendor(_ context.Context, token string) (domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return domain.Vendor{}, err
	}
	return domain.Vendor{ID: u.id, Name: u.name, Email: u.email, ShopName: u.shop}, nil
}

func (m *fakeMarket) UpdateVendor(_ context.Context, token string, v domain.Vendor) (domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.user(token)
	if err != nil {
		return domain.Vendor{}, err
	}
	u.name, u.shop = v.Name, v.ShopName
	return domain.Vendor{ID: u.id, Name: u.name, Email: u.email, ShopName: u.shop}, nil
}

// client is one browser profile talking to a fresh storefront. It keeps the
// sid and csrf_ cookies between requests.
type client struct {
	t       *testing.T
	app     *fiber.App
	deps    *handlers.Deps
	market  *fakeMarket
	cookies map[string]string
}

func newClient(t *testing.T) *client {
	return newClientWith(t, handlers.AppOptions{RateLimit: 1000})
}

func newClientWith(t *testing.T, opts handlers.AppOptions) *client {
	t.Helper()
	db, err := storage.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fm := newFakeMarket()
	d := handlers.NewDeps(storage.NewSQLStore(db), fm, events.LogPublisher{}, config.Config{PaymentSuccessRate: 1})
	d.Payment.Delay = 0
	d.Payment.Decide = func() bool { return true }
	if opts.Views == nil {
		opts.Views = web.Engine("", false)
	}
	return &client{
		t:       t,
		app:     handlers.NewApp(d, opts),
		deps:    d,
		market:  fm,
		cookies: map[string]string{},
	}
}

// newBrowser shares the storefront of c but starts without cookies.
func (c *client) newBrowser() *client {
	return &client{t: c.t, app: c.app, deps: c.deps, market: c.market, cookies: map[string]string{}}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	for name, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, ck := range resp.Cookies() {
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) csrf() string {
	c.t.Helper()
	if tok := c.cookies["csrf_"]; tok != "" {
		return tok
	}
	c.get("/about")
	tok := c.cookies["csrf_"]
	if tok == "" {
		c.t.Fatal("csrf token missing")
	}
	return tok
}

func (c *client) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", c.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// api sends a JSON request and decodes the response into out when given.
func (c *client) api(method, path string, in, out any) int {
	c.t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			c.t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp := c.do(req)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode
}

func (c *client) login(email, password string) *http.Response {
	return c.post("/login", url.Values{"email": {email}, "password": {password}})
}

func (c *client) mustLogin(email string) {
	c.t.Helper()
	resp := c.login(email, testPassword)
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu sync.Mutex
	w  bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs collects every structured entry written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	lw := &lockedWriter{}
	applog.SetOutput(lw)
	defer applog.SetOutput(os.Stdout)

	fn()

	lw.mu.Lock()
	defer lw.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(lw.w.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
