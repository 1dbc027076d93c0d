package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	"github.com/geocoder89/userhub/internal/domain/user"
	apphttp "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func setupPostgresRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	if err := db.MigrateUp(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := db.NewPool(context.Background(), dsn, 4)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	resetUsers(t, pool)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router, err := apphttp.NewRouter(logger, config.Config{Env: "test"}, apphttp.Deps{
		Users:  postgres.NewUsersRepo(pool, nil),
		Hasher: security.NewHasher(bcrypt.MinCost, 4),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, pool
}

func resetUsers(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `TRUNCATE users`); err != nil {
		t.Fatalf("failed to truncate users: %v", err)
	}
}

func postJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func countUsers(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestPostgres_CreateGetUpdateDelete(t *testing.T) {
	r, pool := setupPostgresRouter(t)

	w := postJSON(r, http.MethodPost, "/user/create", `{"name":"Ada","email":"ada@example.com","password":"Abcdef1!"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	var hash string
	if err := pool.QueryRow(context.Background(), `SELECT password_hash FROM users WHERE id = $1`, created.ID).Scan(&hash); err != nil {
		t.Fatalf("read hash: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("Abcdef1!")) != nil {
		t.Fatalf("stored hash does not verify")
	}

	w = postJSON(r, http.MethodPut, "/user/update/"+created.ID, `{"name":"Ada King"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	var name, hashAfter string
	_ = pool.QueryRow(context.Background(), `SELECT name, password_hash FROM users WHERE id = $1`, created.ID).Scan(&name, &hashAfter)
	if name != "Ada King" || hashAfter != hash {
		t.Fatalf("unexpected row after update: %q %q", name, hashAfter)
	}

	req := httptest.NewRequest(http.MethodDelete, "/user/delete/"+created.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	if countUsers(t, pool) != 0 {
		t.Fatalf("row survived delete")
	}
}

func TestPostgres_ConcurrentDuplicateCreate(t *testing.T) {
	r, pool := setupPostgresRouter(t)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := postJSON(r, http.MethodPost, "/user/create", `{"name":"Ada","email":"Ada@Example.com","password":"Abcdef1!"}`)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}

	if created != 1 || countUsers(t, pool) != 1 {
		t.Fatalf("expected exactly one user, created=%d rows=%d", created, countUsers(t, pool))
	}
}

func TestPostgres_PartialUpdatesDoNotClobber(t *testing.T) {
	_, pool := setupPostgresRouter(t)
	ctx := context.Background()
	repo := postgres.NewUsersRepo(pool, nil)

	u, err := repo.Create(ctx, user.NewUser{Name: "Ada", Email: "ada@example.com", PasswordHash: "h1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name, hash := "Ada King", "h2"
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = repo.Update(ctx, u.ID, user.Changes{Name: &name})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = repo.Update(ctx, u.ID, user.Changes{PasswordHash: &hash})
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != name || got.PasswordHash != hash || got.Email != "ada@example.com" {
		t.Fatalf("a concurrent update was lost: %+v", got)
	}
}
