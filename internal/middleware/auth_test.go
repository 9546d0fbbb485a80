package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingTracker) TouchLastActive(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func newRouter(t *testing.T) (*gin.Engine, *token.Manager, *recordingTracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := token.NewManager("middleware_test_secret_of_enough_length", time.Hour)
	tracker := &recordingTracker{}
	m := NewAuthMiddleware(tokens, tracker)

	r := gin.New()
	api := r.Group("/api")
	api.Use(m.RequireAuth(), m.TrackLastActive())
	api.GET("/whoami", func(c *gin.Context) {
		id, err := response.GetUserID(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": c.GetString(response.ContextUsername)})
	})
	api.GET("/users/:id", m.RequireSelf("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	api.GET("/admin", m.RequireRoles(entity.RoleAdmin, entity.RoleModerator), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, tokens, tracker
}

func do(r http.Handler, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, tokens, tracker := newRouter(t)
	signed, _, err := tokens.Generate(5, "lisa", []string{entity.RoleMember})
	require.NoError(t, err)

	w := do(r, "/api/whoami", signed)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"username":"lisa"}`, w.Body.String())
	assert.Equal(t, []uint{5}, tracker.ids)

	// websocket clients pass the token as a query parameter
	w = do(r, "/api/whoami?token="+signed, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/api/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/api/whoami", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a signed token without a usable subject
	anonymous, _, err := tokens.Generate(0, "ghost", nil)
	require.NoError(t, err)
	w = do(r, "/api/whoami", anonymous)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, tracker.ids, 2)
}

func TestRequireSelf(t *testing.T) {
	r, tokens, _ := newRouter(t)
	signed, _, err := tokens.Generate(5, "lisa", []string{entity.RoleMember})
	require.NoError(t, err)

	tests := []struct {
		path string
		want int
	}{
		{path: "/api/users/5", want: http.StatusOK},
		{path: "/api/users/6", want: http.StatusUnauthorized},
		{path: "/api/users/abc", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, do(r, tt.path, signed).Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r, tokens, _ := newRouter(t)

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "member", roles: []string{entity.RoleMember}, want: http.StatusForbidden},
		{name: "moderator", roles: []string{entity.RoleMember, entity.RoleModerator}, want: http.StatusOK},
		{name: "admin lower case", roles: []string{"admin"}, want: http.StatusOK},
		{name: "no roles", roles: nil, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, _, err := tokens.Generate(1, "someone", tt.roles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, do(r, "/api/admin", signed).Code)
		})
	}
}
