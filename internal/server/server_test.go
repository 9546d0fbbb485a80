package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/datingapp/internal/bootstrap"
	"anoa.com/datingapp/internal/config"
	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/testutil"
	"anoa.com/datingapp/pkg/pagination"
	"anoa.com/datingapp/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c client) do(method, target, bearer string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:4200")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func (c client) login(username string) (string, uint) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "Pa$$w0rd"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.User.ID
}

func newClient(t *testing.T) (client, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, bootstrap.SeedAdmin(db))
	require.NoError(t, bootstrap.SeedMembers(db))

	cfg := &config.Config{
		AppEnv:                 "test",
		AllowedOrigins:         []string{"http://localhost:4200"},
		CloudinaryCloudName:    "demo",
		CloudinaryAPIKey:       "key",
		CloudinaryAPISecret:    "secret",
		CloudinaryUploadFolder: "datingapp-test",
		JWTSecret:              "server_test_secret_of_enough_length",
		JWTTTL:                 time.Hour,
	}
	return client{t: t, handler: NewServer(cfg, db, nil).Handler()}, db
}

func TestServer_MemberFlow(t *testing.T) {
	c, db := newClient(t)
	lisa, lisaID := c.login("lisa")
	todd, toddID := c.login("todd")

	w := c.do(http.MethodGet, "/api/users?pageSize=2", lisa, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), response.PaginationHeader)

	var meta pagination.Meta
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get(response.PaginationHeader)), &meta))
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	w = c.do(http.MethodPost, fmt.Sprintf("/api/users/%d/like/%d", lisaID, toddID), lisa, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/api/users?likers=true", todd, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var likers []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &likers))
	require.Len(t, likers, 1)
	assert.Equal(t, "lisa", likers[0]["username"])

	w = c.do(http.MethodPost, fmt.Sprintf("/api/users/%d/messages", toddID), todd,
		map[string]any{"recipient_id": lisaID, "content": "Hi Lisa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodGet, fmt.Sprintf("/api/users/%d/messages?container=Unread", lisaID), lisa, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Len(t, unread, 1)

	// requests through the protected group refresh last active
	var stored entity.User
	require.NoError(t, db.First(&stored, lisaID).Error)
	assert.WithinDuration(t, time.Now().UTC(), stored.LastActive, time.Minute)
}

func TestServer_Authorization(t *testing.T) {
	c, _ := newClient(t)
	lisa, lisaID := c.login("lisa")
	admin, _ := c.login("admin")

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/users", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/users", "garbage", nil).Code)

	other := fmt.Sprintf("/api/users/%d/messages", lisaID+1)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, other, lisa, nil).Code)

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/admin/usersWithRoles", lisa, nil).Code)
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/admin/photosForModeration", lisa, nil).Code)

	w := c.do(http.MethodGet, "/api/admin/usersWithRoles", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 7)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/admin/photosForModeration", admin, nil).Code)

	// search is disabled without a meilisearch host
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/users/search?q=lisa", lisa, nil).Code)
}
