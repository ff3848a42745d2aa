package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"concretestrength/ml"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 64 * 1024
)

// MessageType WebSocket消息类型
type MessageType string

const (
	MessageCompute MessageType = "compute"
	MessageResult  MessageType = "result"
	MessageError   MessageType = "error"
	MessagePing    MessageType = "ping"
	MessagePong    MessageType = "pong"
)

// ClientMessage 客户端消息; 每条 compute 消息即一次离散的计算动作
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"`
	Mixture json.RawMessage `json:"mixture,omitempty"`
}

// ServerMessage 服务端消息
type ServerMessage struct {
	Type      MessageType      `json:"type"`
	ID        string           `json:"id,omitempty"`
	Result    *predictResponse `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Field     string           `json:"field,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// wsSession WebSocket会话
type wsSession struct {
	conn      *websocket.Conn
	send      chan ServerMessage
	sessionID string
	h         *handlers
	logger    *zap.Logger
}

// handleWebSocket 处理WebSocket连接
func (h *handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger(r).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := &wsSession{
		conn:      conn,
		send:      make(chan ServerMessage, 16),
		sessionID: uuid.NewString(),
		h:         h,
	}
	session.logger = h.deps.Logger.With(zap.String("session_id", session.sessionID))
	session.logger.Info("websocket client connected")

	go session.writePump()
	session.readPump(context.WithoutCancel(r.Context()))
}

// readPump WebSocket读取泵; 依次处理每条消息
func (s *wsSession) readPump(ctx context.Context) {
	defer func() {
		close(s.send)
		s.logger.Info("websocket client disconnected")
	}()

	s.conn.SetReadLimit(wsMaxMessage)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(ServerMessage{Type: MessageError, Error: "invalid message"})
			continue
		}
		s.handleMessage(ctx, msg)
	}
}

// handleMessage 处理客户端消息
func (s *wsSession) handleMessage(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case MessagePing:
		s.reply(ServerMessage{Type: MessagePong, ID: msg.ID})
	case MessageCompute:
		input := ml.DefaultMixture()
		if len(msg.Mixture) > 0 {
			if err := json.Unmarshal(msg.Mixture, &input); err != nil {
				s.h.deps.Metrics.ObserveRejection("body")
				s.reply(ServerMessage{Type: MessageError, ID: msg.ID, Error: "invalid mixture"})
				return
			}
		}
		if err := ml.ValidateInput(input); err != nil {
			field := rejectedField(err)
			s.h.deps.Metrics.ObserveRejection(field)
			s.reply(ServerMessage{Type: MessageError, ID: msg.ID, Error: err.Error(), Field: field})
			return
		}
		result, err := s.h.deps.Service.Predict(ctx, input)
		if err != nil {
			s.logger.Error("websocket compute failed", zap.Error(err))
			s.reply(ServerMessage{Type: MessageError, ID: msg.ID, Error: "prediction failed"})
			return
		}
		response := newPredictResponse(result)
		s.reply(ServerMessage{Type: MessageResult, ID: msg.ID, Result: &response})
	default:
		s.reply(ServerMessage{Type: MessageError, ID: msg.ID, Error: "unknown message type"})
	}
}

func (s *wsSession) reply(msg ServerMessage) {
	msg.Timestamp = time.Now()
	s.send <- msg
}

// writePump WebSocket写入泵
func (s *wsSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Warn("websocket write error", zap.Error(err))
				// 继续消费 send, 让 readPump 在连接关闭后退出
				s.conn.Close()
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
			}
		}
	}
}
