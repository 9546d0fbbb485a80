package handler

import (
	"errors"
	"fmt"
	"net/http"

	"anoa.com/datingapp/internal/modules/message/dto"
	message "anoa.com/datingapp/internal/modules/message/service"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/ratelimiter"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type MessageHandler struct {
	service     message.MessageService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewMessageHandler(service message.MessageService, redisClient *redis.Client, allowedOrigins []string) *MessageHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &MessageHandler{
		service:     service,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sent, err := h.service.Send(c.Request.Context(), userID, req)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitErr.Message})
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sent)
}

func (h *MessageHandler) GetMessagesForUser(c *gin.Context) {
	var filter dto.MessageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	filter.UserID = userID

	page, err := h.service.GetMessages(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.SetPagination(c, page.Meta)
	c.JSON(http.StatusOK, page.Items)
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	userID, messageID, ok := userAndParam(c, "messageId")
	if !ok {
		return
	}

	msg, err := h.service.GetMessage(c.Request.Context(), userID, messageID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) GetMessageThread(c *gin.Context) {
	userID, recipientID, ok := userAndParam(c, "recipientId")
	if !ok {
		return
	}

	thread, err := h.service.GetThread(c.Request.Context(), userID, recipientID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, thread)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, messageID, ok := userAndParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, messageID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	userID, messageID, ok := userAndParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), userID, messageID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Live streams messages sent to the caller over a websocket until either side
// disconnects.
func (h *MessageHandler) Live(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live messages are not available"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("failed to upgrade websocket", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, message.LiveChannel(userID))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		logger.Warn("failed to subscribe to live messages", "user_id", userID, "error", err)
		return
	}
	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				logger.Debug("live message write failed", "user_id", userID, "error", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func userAndParam(c *gin.Context, name string) (uint, uint, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}

	id, err := response.ParamID(c, name)
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	return userID, id, true
}
