package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/realtime"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const (
	wsChannelKey  = "ws_channel"
	wsWriteWait   = 10 * time.Second
	wsPingPeriod  = 30 * time.Second
	wsReadTimeout = 60 * time.Second
)

// RealtimeHandler upgrades authorized connections onto live channels.
// Authorization happens in plain HTTP middleware before the upgrade, so a
// rejected client gets a regular error response instead of a dropped socket.
type RealtimeHandler struct {
	hub     *realtime.Hub
	tickets *service.TicketService
	logger  *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, ticketService *service.TicketService, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, tickets: ticketService, logger: logger}
}

// Upgrade rejects plain HTTP requests on websocket routes.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// TicketGate authorizes a subscription to a ticket's live channel.
func (h *RealtimeHandler) TicketGate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID := c.Params("id")
	if err := h.tickets.AuthorizeAccess(c.UserContext(), principal, ticketID); err != nil {
		return err
	}
	c.Locals(wsChannelKey, realtime.TicketChannel(ticketID))
	return c.Next()
}

// NotificationsGate authorizes a subscription to the caller's private channel.
func (h *RealtimeHandler) NotificationsGate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !authz.CanSubscribeUserChannel(principal, principal.ID) {
		return apperrors.NewForbidden("no access to this channel")
	}
	c.Locals(wsChannelKey, realtime.UserChannel(principal.ID))
	return c.Next()
}

// Serve returns the websocket handler. The first frame tells the client its
// server-assigned socket id, which it echoes in X-Socket-ID on sends so its
// own messages are not delivered back.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		channel, _ := conn.Locals(wsChannelKey).(string)
		if channel == "" {
			conn.Close()
			return
		}

		socketID := uuid.NewString()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub := h.hub.Subscribe(ctx, channel, socketID)
		defer sub.Cancel()

		hello, _ := json.Marshal(fiber.Map{
			"event":     "connection.established",
			"socket_id": socketID,
			"channel":   channel,
		})
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		go h.readLoop(conn, cancel)
		h.writeLoop(ctx, conn, sub, channel, socketID)
	})
}

// readLoop drains inbound frames so close frames and pongs are processed.
// Clients send messages through the HTTP endpoint, not the socket.
func (h *RealtimeHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscription, channel, socketID string) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("websocket write failed",
					zap.String("channel", channel), zap.String("socket_id", socketID), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
