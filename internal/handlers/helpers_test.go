package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func tokenFor(t *testing.T, name, email string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, &models.User{Name: name, Email: email}, time.Now())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func do(e *echo.Echo, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(e, method, target, token, r, echo.MIMEApplicationJSON)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// memUsers is an in-memory UserRepository.
type memUsers struct {
	users  []*models.User
	nextID uint
}

func (m *memUsers) CreateUser(user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) GetUserByEmail(email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == uid })
}

func (m *memUsers) UpdateUser(user *models.User) error {
	_, err := m.find(func(u *models.User) bool { return u.ID == user.ID })
	return err
}

