package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/id"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// Frame types
const (
	TypeRun    = "run"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeResult = "result"
	TypeSystem = "system"
	TypeError  = "error"
)

const writeWait = 10 * time.Second

// Handler manages WebSocket connections. Each run frame gets exactly one
// result frame, in order.
type Handler struct {
	runs           *testrun.Manager
	metrics        *monitoring.Metrics
	logger         *zap.Logger
	maxSourceBytes int
	upgrader       websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(runs *testrun.Manager, maxSourceBytes int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runs:           runs,
		logger:         logger,
		maxSourceBytes: maxSourceBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS middleware guards origins
			},
		},
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(utils.MaxJSONSize)

	connID := id.NewConnID().String()
	logger := h.logger.With(zap.String("conn_id", connID))
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx := c.Request.Context()

	h.send(conn, types.WSReply{
		Type:    TypeSystem,
		ID:      connID,
		Message: "Connected to testrunner",
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			h.sendError(conn, "", "text frames only")
			continue
		}

		reply := h.handleFrame(ctx, data, logger)
		if err := h.send(conn, reply); err != nil {
			logger.Debug("WebSocket write error", zap.Error(err))
			return
		}
	}
}

// frameHeader is decoded first so type and id survive malformed bodies
type frameHeader struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (h *Handler) handleFrame(ctx context.Context, data []byte, logger *zap.Logger) types.WSReply {
	var msg frameHeader
	if err := sonic.Unmarshal(data, &msg); err != nil {
		h.observe("in", "invalid")
		return h.rejected("", err)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	switch msg.Type {
	case TypePing:
		h.observe("in", TypePing)
		return types.WSReply{Type: TypePong, ID: msg.ID}
	case TypeRun, "":
		h.observe("in", TypeRun)
	default:
		h.observe("in", "unknown")
		return types.WSReply{Type: TypeError, ID: msg.ID, Message: "unknown message type"}
	}

	req, err := sandbox.ParseRequest(data, h.maxSourceBytes)
	if err != nil {
		return h.rejected(msg.ID, err)
	}

	record, err := h.runs.Run(ctx, testrun.SourceWS, req)
	if err != nil {
		logger.Warn("Run not scheduled", zap.String("id", msg.ID), zap.Error(err))
		text := err.Error()
		return types.WSReply{
			Type:     TypeResult,
			ID:       msg.ID,
			Response: &types.RunResponse{Success: false, Error: &text},
		}
	}

	return types.WSReply{
		Type:     TypeResult,
		ID:       msg.ID,
		RunID:    record.ID,
		Response: &record.Response,
	}
}

func (h *Handler) rejected(msgID string, cause error) types.WSReply {
	record := h.runs.Reject(testrun.SourceWS, cause)
	return types.WSReply{
		Type:     TypeResult,
		ID:       msgID,
		RunID:    record.ID,
		Response: &record.Response,
	}
}

func (h *Handler) send(conn *websocket.Conn, reply types.WSReply) error {
	reply.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(reply)
	if err != nil {
		return err
	}
	h.observe("out", reply.Type)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) sendError(conn *websocket.Conn, msgID, text string) error {
	return h.send(conn, types.WSReply{Type: TypeError, ID: msgID, Message: text})
}

func (h *Handler) observe(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
