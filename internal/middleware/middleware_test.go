package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/inspiring-reading/exam-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ─── Rate limiting ─────────────────────────────────────────────────────────

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(3, ByIP)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	for i := 0; i < 3; i++ {
		if code := hit("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d = %d", i, code)
		}
	}
	if code := hit("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("4th request = %d, want 429", code)
	}
	if code := hit("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client = %d, want 200", code)
	}

	// One token refills every 20s.
	now = now.Add(20 * time.Second)
	if code := hit("10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill = %d, want 200", code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, nil)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(2 * time.Minute)
	rl.allow("b")
	now = now.Add(2 * time.Minute)
	rl.cleanup(3 * time.Minute)

	if _, ok := rl.visitors["a"]; ok {
		t.Error("idle bucket kept")
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Error("recent bucket dropped")
	}
}

// ─── Brotli ────────────────────────────────────────────────────────────────

func brotliEngine(body string, flushFirst bool) *gin.Engine {
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64}))
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/plain")
		c.Status(http.StatusOK)
		if flushFirst {
			_, _ = c.Writer.WriteString("x")
			c.Writer.Flush()
		}
		// Write in small chunks so the tail lands after compression starts.
		for i := 0; i < len(body); i += 10 {
			end := i + 10
			if end > len(body) {
				end = len(body)
			}
			_, _ = c.Writer.WriteString(body[i:end])
		}
	})
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("reading comprehension ", 20) + "end"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")

	w := serve(brotliEngine(body, false), req)
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("Content-Encoding = %q", w.Header().Get("Content-Encoding"))
	}
	got, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != body {
		t.Errorf("decoded body mismatch: %q", got)
	}
}

func TestBrotliLeavesSmallBodiesPlain(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")

	w := serve(brotliEngine("short", false), req)
	if w.Header().Get("Content-Encoding") != "" {
		t.Errorf("small body was compressed")
	}
	if w.Body.String() != "short" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestBrotliEarlyFlushStaysPlain(t *testing.T) {
	body := strings.Repeat("a", 200)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")

	w := serve(brotliEngine(body, true), req)
	if w.Header().Get("Content-Encoding") != "" {
		t.Errorf("flushed response switched encoding")
	}
	if w.Body.String() != "x"+body {
		t.Errorf("body length = %d", w.Body.Len())
	}
}

func TestBrotliKeepsEncodedBodies(t *testing.T) {
	body := strings.Repeat("z", 300)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64}))
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Encoding", "gzip")
		c.String(http.StatusOK, body)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")

	w := serve(r, req)
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q", got)
	}
	if w.Body.String() != body {
		t.Errorf("body was re-encoded")
	}
}

func TestAcceptsBrotli(t *testing.T) {
	tests := map[string]bool{
		"br":            true,
		"gzip, BR":      true,
		"br;q=0.5":      true,
		"br;q=0":        false,
		"gzip, deflate": false,
		"":              false,
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", header)
		if got := acceptsBrotli(req); got != want {
			t.Errorf("acceptsBrotli(%q) = %v, want %v", header, got, want)
		}
	}
}

// ─── Auth ──────────────────────────────────────────────────────────────────

type fakeTokens map[string]*service.Claims

func (f fakeTokens) ValidateToken(tok string) (*service.Claims, error) {
	if tok == "expired" {
		return nil, jwt.ErrTokenExpired
	}
	c, ok := f[tok]
	if !ok {
		return nil, errors.New("bad token")
	}
	return c, nil
}

type fakeLogins struct{ err error }

func (f fakeLogins) ValidateLogin(context.Context, int, string) error { return f.err }

func TestRequireJWT(t *testing.T) {
	tokens := fakeTokens{
		"stu": {TokenType: service.TokenTypeStudent, UserID: 1},
		"adm": {TokenType: service.TokenTypeAdmin, UserID: 2},
	}
	r := gin.New()
	r.GET("/student", RequireStudentJWT(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).UserID)
	})
	r.GET("/admin", RequireAdminJWT(tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		path, auth, query string
		want              int
		code              string
	}{
		{"/student", "Bearer stu", "", http.StatusOK, ""},
		{"/student", "", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"/student", "Bearer nope", "", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"/student", "Bearer expired", "", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"/student", "Bearer adm", "", http.StatusForbidden, "STUDENT_ACCESS_ONLY"},
		{"/admin", "Bearer stu", "", http.StatusForbidden, "ADMIN_ACCESS_ONLY"},
		{"/admin", "", "?token=adm", http.StatusOK, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path+tt.query, nil)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		w := serve(r, req)
		if w.Code != tt.want {
			t.Errorf("%s %q: status = %d, want %d", tt.path, tt.auth, w.Code, tt.want)
		}
		if tt.code != "" && !strings.Contains(w.Body.String(), tt.code) {
			t.Errorf("%s %q: body = %s, want code %s", tt.path, tt.auth, w.Body.String(), tt.code)
		}
	}
}

func TestCheckSingleDeviceSession(t *testing.T) {
	tokens := fakeTokens{"stu": {TokenType: service.TokenTypeStudent, UserID: 1}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"current login", nil, http.StatusOK},
		{"superseded", service.ErrLoginInvalidated, http.StatusUnauthorized},
		{"logged out", service.ErrNoLoginSession, http.StatusUnauthorized},
		{"redis down", errors.New("dial tcp"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/", RequireAnyJWT(tokens), CheckSingleDeviceSession(fakeLogins{tt.err}), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer stu")
		if w := serve(r, req); w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.want)
		}
	}
}
