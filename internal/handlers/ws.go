package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkerc/unoroom/internal/auth"
	"github.com/parkerc/unoroom/internal/database"
	"github.com/parkerc/unoroom/internal/game"
	"github.com/parkerc/unoroom/internal/models"
)

// ClientMessage is the closed inbound protocol: one variant per action, each
// with its own required fields. Anything else is rejected at the boundary
// before it reaches the rule engine.
type ClientMessage struct {
	Type        string       `json:"type"`
	Code        string       `json:"code,omitempty"`
	CardID      string       `json:"cardId,omitempty"`
	ChosenColor models.Color `json:"chosenColor,omitempty"`
}

const (
	msgCreateRoom    = "create_room"
	msgJoinRoom      = "join_room"
	msgReconnectRoom = "reconnect_room"
	msgPlayCard      = "play_card"
	msgDrawCard      = "draw_card"
	msgCallUno       = "call_uno"
	msgLeaveRoom     = "leave_room"
)

// Ack is the per-request acknowledgment. Rule errors travel back to the
// originating caller only; the opponent never sees them.
type Ack struct {
	Type  string `json:"type"`
	For   string `json:"for"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// RoomWSHandler upgrades the connection, authenticates the identity once, and
// then serves the room protocol for the life of the socket. The identity is
// trusted for the whole connection; it is never re-derived from game payloads.
func RoomWSHandler(logger *logrus.Logger, srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"uno"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error")

		userID, username, err := authenticateRequest(r)
		if err != nil {
			logger.Warnf("websocket auth failed: %v", err)
			c.Close(websocket.StatusPolicyViolation, "authentication failed")
			return
		}
		logger.WithFields(logrus.Fields{"user": username, "remote": r.RemoteAddr}).Info("websocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := newSession(srv, userID, username, c)
		readRoomMessages(ctx, c, sess, logger)

		// The socket is gone; every room this socket seated goes to the
		// grace-period machinery.
		sess.closeAll()
		logger.WithField("user", username).Info("websocket disconnected")
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// session is one socket's room bookkeeping. A socket may seat its identity in
// several rooms; each one must see the disconnect when the socket closes, or
// abandoned seats would pin their rooms forever.
type session struct {
	srv      *RoomServer
	userID   uuid.UUID
	username string
	conn     *websocket.Conn
	rooms    map[string]*game.Room
}

func newSession(srv *RoomServer, userID uuid.UUID, username string, conn *websocket.Conn) *session {
	return &session{
		srv:      srv,
		userID:   userID,
		username: username,
		conn:     conn,
		rooms:    make(map[string]*game.Room),
	}
}

// closeAll runs disconnect handling for every room this socket seated. The
// conn is passed along so a seat that already moved to a newer socket is
// untouched.
func (s *session) closeAll() {
	for _, room := range s.rooms {
		room.HandleDisconnect(s.userID, s.conn)
	}
}

// dispatch routes one validated message. It returns the ack to send, or nil
// for fire-and-forget variants.
func (s *session) dispatch(msg ClientMessage) *Ack {
	switch msg.Type {
	case msgCreateRoom:
		room := s.srv.CreateRoom()
		if err := room.Join(s.userID, s.username, s.conn); err != nil {
			return ackErrorP(msg.Type, err)
		}
		s.rooms[room.Code] = room
		return &Ack{Type: "ack", For: msg.Type, OK: true, Code: room.Code}

	case msgJoinRoom:
		room, ok := s.srv.Rooms.Get(msg.Code)
		if !ok {
			return ackErrorP(msg.Type, game.ErrRoomNotFound)
		}
		if err := room.Join(s.userID, s.username, s.conn); err != nil {
			return ackErrorP(msg.Type, err)
		}
		s.rooms[room.Code] = room
		return &Ack{Type: "ack", For: msg.Type, OK: true, Code: room.Code}

	case msgReconnectRoom:
		room, ok := s.srv.Rooms.Get(msg.Code)
		if !ok {
			return ackErrorP(msg.Type, game.ErrRoomNotFound)
		}
		if err := room.Reconnect(s.userID, s.conn); err != nil {
			return ackErrorP(msg.Type, err)
		}
		s.rooms[room.Code] = room
		return &Ack{Type: "ack", For: msg.Type, OK: true, Code: room.Code}

	case msgPlayCard:
		room, ok := s.srv.Rooms.Get(msg.Code)
		if !ok {
			return ackErrorP(msg.Type, game.ErrRoomNotFound)
		}
		cardID, err := uuid.Parse(msg.CardID)
		if err != nil {
			return ackErrorP(msg.Type, game.ErrCardNotFound)
		}
		if err := room.PlayCard(s.userID, cardID, msg.ChosenColor); err != nil {
			return ackErrorP(msg.Type, err)
		}
		return &Ack{Type: "ack", For: msg.Type, OK: true}

	case msgDrawCard:
		room, ok := s.srv.Rooms.Get(msg.Code)
		if !ok {
			return ackErrorP(msg.Type, game.ErrRoomNotFound)
		}
		if err := room.DrawCard(s.userID); err != nil {
			return ackErrorP(msg.Type, err)
		}
		return &Ack{Type: "ack", For: msg.Type, OK: true}

	case msgCallUno:
		// Best-effort by design; no acknowledgment.
		if room, ok := s.srv.Rooms.Get(msg.Code); ok {
			room.CallUno(s.userID)
		}
		return nil

	case msgLeaveRoom:
		room, ok := s.srv.Rooms.Get(msg.Code)
		if !ok {
			return ackErrorP(msg.Type, game.ErrRoomNotFound)
		}
		if err := room.Leave(s.userID); err != nil {
			return ackErrorP(msg.Type, err)
		}
		delete(s.rooms, msg.Code)
		return &Ack{Type: "ack", For: msg.Type, OK: true}
	}
	return nil
}

// authenticateRequest resolves the caller's identity from the session token
// (cookie or bearer header) and loads the username it maps to.
func authenticateRequest(r *http.Request) (uuid.UUID, string, error) {
	token := extractToken(r)
	if token == "" {
		return uuid.Nil, "", game.ErrUnauthorized
	}
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, "", game.ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", game.ErrUnauthorized
	}
	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		return uuid.Nil, "", game.ErrUnauthorized
	}
	return user.ID, user.Username, nil
}

// readRoomMessages is the connection's read loop: decode, validate, dispatch,
// ack. It returns when the socket dies.
func readRoomMessages(ctx context.Context, c *websocket.Conn, sess *session, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				logger.Warnf("websocket read error for %s: %v", sess.username, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendAck(ctx, c, logger, Ack{Type: "ack", For: "", OK: false, Error: game.ErrMalformed.Code})
			continue
		}
		if rerr := validateMessage(&msg); rerr != nil {
			sendAck(ctx, c, logger, Ack{Type: "ack", For: msg.Type, OK: false, Error: rerr.Code})
			continue
		}

		if ack := sess.dispatch(msg); ack != nil {
			sendAck(ctx, c, logger, *ack)
		}
	}
}

// validateMessage enforces the variant's required fields. Room codes are
// normalized to upper case, matching what generated codes look like.
func validateMessage(msg *ClientMessage) *game.RuleError {
	msg.Code = strings.ToUpper(strings.TrimSpace(msg.Code))

	switch msg.Type {
	case msgCreateRoom:
		return nil
	case msgJoinRoom, msgReconnectRoom, msgDrawCard, msgCallUno, msgLeaveRoom:
		if msg.Code == "" {
			return game.ErrMalformed
		}
		return nil
	case msgPlayCard:
		if msg.Code == "" || msg.CardID == "" {
			return game.ErrMalformed
		}
		return nil
	default:
		return game.ErrMalformed
	}
}

// ackError maps an engine error to an Ack, preserving the typed code where
// one exists.
func ackError(forType string, err error) Ack {
	var rerr *game.RuleError
	if errors.As(err, &rerr) {
		return Ack{Type: "ack", For: forType, OK: false, Error: rerr.Code}
	}
	return Ack{Type: "ack", For: forType, OK: false, Error: "internal_error"}
}

func ackErrorP(forType string, err error) *Ack {
	a := ackError(forType, err)
	return &a
}

func sendAck(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, ack Ack) {
	data, err := json.Marshal(ack)
	if err != nil {
		logger.Errorf("failed to marshal ack: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		logger.Warnf("failed to write ack: %v", err)
	}
}

// broadcastViews returns the per-room broadcast function. It is invoked with
// the room lock held, so every write happens on a goroutine; a slow client
// never stalls the room or any other room.
func broadcastViews(logger *logrus.Logger) func(views []game.PlayerView) {
	return func(views []game.PlayerView) {
		for _, v := range views {
			data, err := json.Marshal(v)
			if err != nil {
				logger.Errorf("failed to marshal state view for %s: %v", v.You, err)
				continue
			}
			go func(conn *websocket.Conn, data []byte) {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Warnf("failed to write state broadcast: %v", err)
				}
			}(v.Conn, data)
		}
	}
}
