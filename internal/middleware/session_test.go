package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func whoAmI(c echo.Context) error {
	id, ok := IdentityOf(c)
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, id.Email+"|"+id.Name)
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	e.GET("/optional", whoAmI, Authenticate(false, JWTVerifier{Secret: testSecret}))
	e.GET("/required", whoAmI, Authenticate(true, JWTVerifier{Secret: testSecret}))

	user := &models.User{Name: "Ана", Email: "ana@example.mk"}
	token, err := IssueToken(testSecret, user, time.Now())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	forged, _ := IssueToken("other-secret", user, time.Now())
	expired, _ := IssueToken(testSecret, user, time.Now().Add(-2*TokenTTL))

	cases := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantBody string
	}{
		{"optional without token", "/optional", "", http.StatusOK, "anonymous"},
		{"optional with token", "/optional", token, http.StatusOK, "ana@example.mk|Ана"},
		{"required without token", "/required", "", http.StatusUnauthorized, ""},
		{"required with token", "/required", token, http.StatusOK, "ana@example.mk|Ана"},
		{"forged signature", "/required", forged, http.StatusUnauthorized, ""},
		{"expired", "/required", expired, http.StatusUnauthorized, ""},
		{"garbage rejected even when optional", "/optional", "garbage", http.StatusUnauthorized, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, c.path, c.token)
			if rec.Code != c.wantCode {
				t.Fatalf("got status %d, want %d", rec.Code, c.wantCode)
			}
			if c.wantBody != "" && rec.Body.String() != c.wantBody {
				t.Errorf("got body %q, want %q", rec.Body.String(), c.wantBody)
			}
		})
	}
}

func TestActionRateLimiter(t *testing.T) {
	e := echo.New()
	limiter := ActionRateLimiter(ratelimit.NewWindow(3, time.Minute))
	e.DELETE("/act", whoAmI, Authenticate(true, JWTVerifier{Secret: testSecret}), limiter)

	ana, _ := IssueToken(testSecret, &models.User{Email: "ana@example.mk"}, time.Now())
	marko, _ := IssueToken(testSecret, &models.User{Email: "marko@example.mk"}, time.Now())

	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodDelete, "/act", ana); rec.Code != http.StatusOK {
			t.Fatalf("action %d got status %d, want 200", i+1, rec.Code)
		}
	}
	if rec := serve(e, http.MethodDelete, "/act", ana); rec.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want 429", rec.Code)
	}
	if rec := serve(e, http.MethodDelete, "/act", marko); rec.Code != http.StatusOK {
		t.Errorf("another user got status %d, want 200", rec.Code)
	}
}
