package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "authgate/internal/application"
	"authgate/internal/domain/entity"
	repo "authgate/internal/domain/repository"
	"authgate/internal/interface/middleware"
	"authgate/pkg/helpers"
)

func newTestUserHandler(r repo.UserRepository) *UserHandler {
	svc := &userapp.Service{
		Repo:   r,
		JWT:    &helpers.JWTManager{Secret: []byte("test-secret"), TTL: time.Hour},
		Logger: quietLogger(),
	}
	return NewUserHandler(svc, quietLogger())
}

func TestMeHandler(t *testing.T) {
	now := time.Now().UTC()
	store := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
			if id != "u-1" {
				return nil, repo.ErrNotFound
			}
			return &entity.User{
				ID: "u-1", Email: "ada@example.com", Name: "Ada",
				Password: "hash", CreatedAt: now, UpdatedAt: now,
			}, nil
		},
	}

	withUser := func(uid string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(middleware.CtxUserIDKey, uid) }
	}

	t.Run("returns the public projection", func(t *testing.T) {
		h := newTestUserHandler(store)
		r := gin.New()
		r.GET("/api/user", withUser("u-1"), h.Me)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
		assert.NotContains(t, w.Body.String(), "hash")
	})

	t.Run("unknown user", func(t *testing.T) {
		h := newTestUserHandler(store)
		r := gin.New()
		r.GET("/api/user", withUser("missing"), h.Me)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no session context", func(t *testing.T) {
		h := newTestUserHandler(store)
		r := gin.New()
		r.GET("/api/user", h.Me)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSearchHandler(t *testing.T) {
	t.Run("requires q", func(t *testing.T) {
		h := newTestUserHandler(&mockUserRepo{})
		r := gin.New()
		r.GET("/api/users/search", h.Search)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/search", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty result set when search is not configured", func(t *testing.T) {
		h := newTestUserHandler(&mockUserRepo{})
		r := gin.New()
		r.GET("/api/users/search", h.Search)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/search?q=ada", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"hits":[]`)
	})
}
