package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fakeUsers struct {
	byID  map[uint]*models.User
	byUID map[string]*models.User
}

func (f *fakeUsers) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	if u, ok := f.byUID[uid]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeStores map[uint]string

func (f fakeStores) StoreIDForOwner(ctx context.Context, userID uint) (string, error) {
	if id, ok := f[userID]; ok {
		return id, nil
	}
	return "", errors.New("no store")
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token expired")
}

var (
	sellerUser = &models.User{ID: 1, Name: "Sam", Email: "sam@example.com", Role: "seller", FirebaseUID: "fb-sam"}
	buyerUser  = &models.User{ID: 2, Name: "Bea", Email: "bea@example.com", Role: "buyer"}
	users      = &fakeUsers{
		byID:  map[uint]*models.User{1: sellerUser, 2: buyerUser},
		byUID: map[string]*models.User{"fb-sam": sellerUser},
	}
	stores = fakeStores{1: "store-1"}
)

// run passes a request through mw and returns the viewer the handler saw.
func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (models.Viewer, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen models.Viewer
	err := mw(func(c echo.Context) error {
		v, ok := ViewerFromContext(c)
		require.True(t, ok)
		seen = v
		return nil
	})(c)
	return seen, err
}

func signed(t *testing.T, userID uint, secret string, expires time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
}

func TestJWTAuthResolvesSeller(t *testing.T) {
	mw := JWTAuthMiddleware(testSecret, users, stores)

	v, err := run(t, mw, "Bearer "+signed(t, 1, testSecret, time.Now().Add(time.Hour)))

	require.NoError(t, err)
	assert.Equal(t, "fb-sam", v.UID)
	assert.Equal(t, models.RoleSeller, v.Role)
	assert.Equal(t, "store-1", v.StoreID)
}

func TestJWTAuthResolvesLocalBuyer(t *testing.T) {
	mw := JWTAuthMiddleware(testSecret, users, stores)

	v, err := run(t, mw, "Bearer "+signed(t, 2, testSecret, time.Now().Add(time.Hour)))

	require.NoError(t, err)
	assert.Equal(t, "local-2", v.UID)
	assert.Equal(t, models.RoleBuyer, v.Role)
	assert.Empty(t, v.StoreID)
}

func TestJWTAuthRejects(t *testing.T) {
	mw := JWTAuthMiddleware(testSecret, users, stores)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"wrong secret", "Bearer " + signed(t, 1, "other", future)},
		{"expired", "Bearer " + signed(t, 1, testSecret, time.Now().Add(-time.Hour))},
		{"unknown user", "Bearer " + signed(t, 99, testSecret, future)},
		{"garbage", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, mw, tt.header)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestFirebaseAuthKnownUser(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "fb-sam"},
	}}
	mw := FirebaseAuthMiddleware(verifier, users, stores)

	v, err := run(t, mw, "Bearer good")

	require.NoError(t, err)
	assert.Equal(t, "fb-sam", v.UID)
	assert.Equal(t, models.RoleSeller, v.Role)
	assert.Equal(t, "store-1", v.PublisherID())
}

func TestFirebaseAuthUnknownUserIsBuyer(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*auth.Token{
		"new": {UID: "fb-new", Claims: map[string]interface{}{"name": "Nia", "email": "nia@example.com"}},
	}}
	mw := FirebaseAuthMiddleware(verifier, users, stores)

	v, err := run(t, mw, "Bearer new")

	require.NoError(t, err)
	assert.Equal(t, models.Viewer{UID: "fb-new", DisplayName: "Nia", Email: "nia@example.com", Role: models.RoleBuyer}, v)
}

func TestFirebaseAuthRejectsBadToken(t *testing.T) {
	mw := FirebaseAuthMiddleware(&fakeVerifier{}, users, stores)

	_, err := run(t, mw, "Bearer stale")
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = run(t, mw, "")
	assertStatus(t, err, http.StatusUnauthorized)
}
