package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/datingapp/internal/entity"
	handler "anoa.com/datingapp/internal/modules/message/delivery/http"
	"anoa.com/datingapp/internal/modules/message/dto"
	messageRepo "anoa.com/datingapp/internal/modules/message/repository"
	message "anoa.com/datingapp/internal/modules/message/service"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	"anoa.com/datingapp/internal/testutil"
	"anoa.com/datingapp/pkg/pagination"
	"anoa.com/datingapp/pkg/response"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	mr     *miniredis.Miniredis
	svc    message.MessageService
	sari   *entity.User
	bayu   *entity.User
}

// callerHeader stands in for the auth middleware.
const callerHeader = "X-Test-User"

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := message.NewMessageService(messageRepo.NewMessageRepository(db), userRepo.NewUserRepository(db), client, time.Minute)
	h := handler.NewMessageHandler(svc, client, []string{"http://localhost:4200"})

	r := gin.New()
	g := r.Group("/messages", func(c *gin.Context) {
		var id uint
		fmt.Sscan(c.GetHeader(callerHeader), &id)
		if id == 0 {
			fmt.Sscan(c.Query("as"), &id)
		}
		c.Set(response.ContextUserID, id)
		c.Next()
	})
	g.GET("", h.GetMessagesForUser)
	g.POST("", h.CreateMessage)
	g.GET("/live", h.Live)
	g.GET("/thread/:recipientId", h.GetMessageThread)
	g.GET("/:messageId", h.GetMessage)
	g.POST("/:messageId", h.DeleteMessage)
	g.POST("/:messageId/read", h.MarkMessageAsRead)

	return &fixture{
		router: r,
		mr:     mr,
		svc:    svc,
		sari:   testutil.CreateUser(t, db, "sari", entity.GenderFemale, 27),
		bayu:   testutil.CreateUser(t, db, "bayu", entity.GenderMale, 30),
	}
}

func (f *fixture) do(method, target string, caller uint, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(callerHeader, fmt.Sprint(caller))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateMessage_RateLimited(t *testing.T) {
	f := setup(t)
	body := gin.H{"recipient_id": f.bayu.ID, "content": "halo"}

	w := f.do(http.MethodPost, "/messages", f.sari.ID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sent dto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.Equal(t, "sari", sent.SenderUsername)
	assert.Equal(t, "bayu", sent.RecipientUsername)

	w = f.do(http.MethodPost, "/messages", f.sari.ID, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// the window is per sender
	w = f.do(http.MethodPost, "/messages", f.bayu.ID, gin.H{"recipient_id": f.sari.ID, "content": "hai"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateMessage_Validation(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/messages", f.sari.ID, gin.H{"content": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/messages", f.sari.ID,
		gin.H{"recipient_id": f.sari.ID, "content": "me"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/messages", f.sari.ID,
		gin.H{"recipient_id": f.bayu.ID, "content": strings.Repeat("a", 2001)}).Code)
}

func TestMailboxFlow(t *testing.T) {
	f := setup(t)
	sent, err := f.svc.Send(context.Background(), f.bayu.ID, dto.CreateMessageRequest{RecipientID: f.sari.ID, Content: "apa kabar?"})
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/messages", f.sari.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var meta pagination.Meta
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get(response.PaginationHeader)), &meta))
	assert.Equal(t, int64(1), meta.TotalItems)

	target := fmt.Sprintf("/messages/%d", sent.ID)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, target+"/read", f.bayu.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, target+"/read", f.sari.ID, nil).Code)

	w = f.do(http.MethodGet, "/messages?container=Unread", f.sari.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/messages?container=Trash", f.sari.ID, nil).Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/messages/thread/%d", f.bayu.ID), f.sari.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thread []dto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))
	require.Len(t, thread, 1)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, target, f.sari.ID, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, target, f.sari.ID, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, target, f.bayu.ID, nil).Code)
}

func TestLive_DeliversNewMessages(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/messages/live?as=%d", f.sari.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	channel := message.LiveChannel(f.sari.ID)
	require.Eventually(t, func() bool {
		return f.mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.svc.Send(context.Background(), f.bayu.ID, dto.CreateMessageRequest{RecipientID: f.sari.ID, Content: "live!"})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got dto.MessageResponse
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "live!", got.Content)
	assert.Equal(t, f.bayu.ID, got.SenderID)
}
