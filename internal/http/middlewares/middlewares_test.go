package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeFinder struct {
	getFn func(ctx context.Context, id string) (user.User, error)
	calls int
}

func (f *fakeFinder) GetByID(ctx context.Context, id string) (user.User, error) {
	f.calls++
	return f.getFn(ctx, id)
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

const knownID = "4f0c0a54-9d6f-4b1e-8d3e-2c3b7a1e9f10"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLookupRouter(f UserFinder, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/user/:id", LoadUser(f, quietLogger()), func(ctx *gin.Context) {
		*reached = true
		u, ok := UserFromContext(ctx)
		if !ok {
			ctx.Status(http.StatusTeapot)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	return r
}

func TestLoadUser(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		getFn     func(ctx context.Context, id string) (user.User, error)
		wantCode  int
		wantErr   string
		wantCalls int
		wantReach bool
	}{
		{
			name: "found",
			id:   knownID,
			getFn: func(ctx context.Context, id string) (user.User, error) {
				return user.User{ID: id, Name: "Ada"}, nil
			},
			wantCode:  http.StatusOK,
			wantCalls: 1,
			wantReach: true,
		},
		{
			name: "missing",
			id:   knownID,
			getFn: func(ctx context.Context, id string) (user.User, error) {
				return user.User{}, user.ErrNotFound
			},
			wantCode:  http.StatusNotFound,
			wantErr:   "not_found",
			wantCalls: 1,
		},
		{
			name:     "malformed id never hits the store",
			id:       "42",
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name: "store fault",
			id:   knownID,
			getFn: func(ctx context.Context, id string) (user.User, error) {
				return user.User{}, errors.New("connection refused")
			},
			wantCode:  http.StatusInternalServerError,
			wantErr:   "internal_error",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFinder{getFn: tt.getFn}
			reached := false
			r := newLookupRouter(f, &reached)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/"+tt.id, nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if f.calls != tt.wantCalls {
				t.Fatalf("store calls = %d, want %d", f.calls, tt.wantCalls)
			}
			if reached != tt.wantReach {
				t.Fatalf("handler reached = %v, want %v", reached, tt.wantReach)
			}

			if tt.wantErr != "" {
				var body errorBody
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Error.Code != tt.wantErr {
					t.Fatalf("code = %q, want %q", body.Error.Code, tt.wantErr)
				}
				if body.Error.RequestID == "" {
					t.Fatalf("expected request id in error body")
				}
				if tt.wantErr == "internal_error" && bytes.Contains(w.Body.Bytes(), []byte("connection refused")) {
					t.Fatalf("internal error leaked: %s", w.Body.String())
				}
			}
		})
	}
}

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, RequestIDFrom(ctx))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected echoed id, got %q", got)
	}
	if w.Body.String() != "abc-123" {
		t.Fatalf("expected id on context, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	tests := []struct {
		ct   string
		want int
	}{
		{"application/json", http.StatusNoContent},
		{"application/json; charset=utf-8", http.StatusNoContent},
		{"text/plain", http.StatusUnsupportedMediaType},
		{"", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Fatalf("Content-Type %q: status = %d, want %d", tt.ct, w.Code, tt.want)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow origin for foreign origin")
	}
}

func TestLoadUser_PassesCanonicalID(t *testing.T) {
	var seen []string
	f := &fakeFinder{getFn: func(ctx context.Context, id string) (user.User, error) {
		seen = append(seen, id)
		return user.User{ID: id}, nil
	}}
	reached := false
	r := newLookupRouter(f, &reached)

	for _, alias := range []string{
		"4F0C0A54-9D6F-4B1E-8D3E-2C3B7A1E9F10",
		"4f0c0a549d6f4b1e8d3e2c3b7a1e9f10",
		"%7B4f0c0a54-9d6f-4b1e-8d3e-2c3b7a1e9f10%7D",
		"urn:uuid:4f0c0a54-9d6f-4b1e-8d3e-2c3b7a1e9f10",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/"+alias, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", alias, w.Code)
		}
	}

	for _, id := range seen {
		if id != knownID {
			t.Fatalf("store received %q, want %q", id, knownID)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 lookups, got %d", len(seen))
	}
}
