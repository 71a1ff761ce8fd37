package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultTopics are streamed when no topics are configured.
var DefaultTopics = []string{"system.events", "ticks"}

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	topics   []string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandler creates a new WebSocket handler streaming topics from eventBus
func NewHandler(eventBus ports.EventBus, topics []string, logger *zap.Logger) *Handler {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		eventBus: eventBus,
		topics:   topics,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close ends every open stream
func (h *Handler) Close() {
	h.cancel()
}

// HandleStream streams bus events to the client. The optional "type" and
// "role" query parameters filter the stream.
func (h *Handler) HandleStream(c *gin.Context) {
	typeFilter := c.Query("type")
	roleFilter := c.Query("role")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()),
		zap.Strings("topics", h.topics))

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	// The read loop only notices the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventChan := make(chan domain.Event, 64)
	h.subscribeToEvents(ctx, eventChan)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case event := <-eventChan:
			if typeFilter != "" && string(event.Type) != typeFilter {
				continue
			}
			if roleFilter != "" && string(event.Role) != roleFilter {
				continue
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// subscribeToEvents subscribes ch to every configured topic until ctx ends
func (h *Handler) subscribeToEvents(ctx context.Context, ch chan<- domain.Event) {
	eventHandler := func(_ context.Context, event domain.Event) error {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}

	for _, topic := range h.topics {
		if err := h.eventBus.Subscribe(ctx, topic, eventHandler); err != nil {
			h.logger.Error("failed to subscribe to events",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}
