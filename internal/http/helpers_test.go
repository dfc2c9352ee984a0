package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

const (
	adminEmail    = "admin@ecommerce.com"
	adminPassword = "admin123"
)

func testConfig() config.Config {
	return config.Config{
		DBDSN:             ":memory:",
		AdminEmail:        adminEmail,
		AdminPassword:     adminPassword,
		TokenTTL:          time.Hour,
		LowStockThreshold: 10,
		Timezone:          "UTC",
	}
}

// newTestApp wires the real routes over a seeded in-memory database and
// captures the application log.
func newTestApp(t *testing.T, lim handlers.Limits) (*fiber.App, *sqlx.DB, *bytes.Buffer) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var buf bytes.Buffer
	applog.Setup(&buf, "info")

	deps := handlers.NewDeps(db, testConfig(), events.Nop{})
	return handlers.NewApp(deps, lim), db, &buf
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: non-JSON body %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

// adminToken bootstraps the admin account and logs in.
func adminToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	if code, body := do(t, app, "POST", "/api/auth/init", "", nil); code != fiber.StatusOK {
		t.Fatalf("init admin: %d %v", code, body)
	}
	code, body := do(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	if code != fiber.StatusOK {
		t.Fatalf("login: %d %v", code, body)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("login returned no token: %v", body)
	}
	return tok
}
