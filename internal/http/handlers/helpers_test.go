package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"neurocart/internal/cache"
	"neurocart/internal/config"
	"neurocart/internal/domain"
	"neurocart/internal/http/handlers"
	"neurocart/internal/jobs"
	"neurocart/internal/repos"
)

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	deps  *handlers.Deps
	cache *cache.Memory
	queue *jobs.MemoryQueue
}

func newTestApp(t *testing.T, opt handlers.AppOptions) *testApp {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		SessionTTL:          time.Hour,
		ProductsCacheTTL:    5 * time.Minute,
		WelcomeCouponAmount: decimal.NewFromInt(5000),
		WelcomeCouponTTL:    30 * 24 * time.Hour,
	}
	c := cache.NewMemory()
	q := jobs.NewMemoryQueue()
	d := handlers.NewDeps(db, cfg, c, q)
	d.Auth.Cost = bcrypt.MinCost

	if opt.TemplatesDir == "" {
		opt.TemplatesDir = "../../../web/templates"
	}
	return &testApp{app: handlers.NewApp(d, opt), db: db, deps: d, cache: c, queue: q}
}

// do sends a request and decodes a JSON body into out when out is non-nil.
func (a *testApp) do(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// userWithRole inserts an account directly and returns a bearer token for it.
func (a *testApp) userWithRole(t *testing.T, name string, role string) (*domain.User, string) {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.test", Hash: string(h), Role: role}
	require.NoError(t, repos.NewUserRepo(a.db).Create(context.Background(), u))

	var sess struct {
		Token string `json:"token"`
	}
	resp := a.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": name, "password": "passw0rd!"}, &sess)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, sess.Token)
	return u, sess.Token
}

func (a *testApp) product(t *testing.T, name, price string) domain.Product {
	t.Helper()
	p := domain.Product{ID: uuid.NewString(), Name: name, Price: decimal.RequireFromString(price), Quantity: 10, Category: domain.CategoryElectronics}
	require.NoError(t, repos.NewProductRepo(a.db).Create(context.Background(), p))
	return p
}

func (a *testApp) coupon(t *testing.T, code, amount string, owner string) domain.Coupon {
	t.Helper()
	c := domain.Coupon{ID: uuid.NewString(), UserID: owner, Code: code, Amount: decimal.RequireFromString(amount), ExpiresAt: time.Now().Add(24 * time.Hour), IsActive: true}
	require.NoError(t, repos.NewCouponRepo(a.db).Create(context.Background(), c))
	return c
}

func checkoutBody(coupon string, items ...map[string]any) map[string]any {
	return map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.test",
		"address": "1 Analytical Way", "country": "UK", "state": "London", "zip_code": "N1",
		"card_name": "A LOVELACE", "card_number": "4111111111111111", "expiration": "12/30", "cvv": "123",
		"coupon": coupon, "items": items,
	}
}

func item(productID string, qty int) map[string]any {
	return map[string]any{"product_id": productID, "quantity": qty}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output for the duration of fn and returns the
// JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
