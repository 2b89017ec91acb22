// Package gateway owns the WebSocket edge: upgrade, auth handshake, read and
// write pumps, and dispatch into the table actors.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"blackjack-lite/apps/server/internal/auth"
	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/table"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

const (
	readLimit     = 65536
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// Error codes on the wire.
const (
	codeBadMessage   = 1
	codeUnauthorized = 2
	codeNoTable      = 3
	codeBadAction    = 4
	codeTableError   = 5
)

// Connection is one WebSocket client. Send is never closed; shutdown
// signals through done so concurrent senders cannot hit a closed channel.
type Connection struct {
	ID        string
	AccountID uint64
	Username  string
	Conn      *websocket.Conn
	Send      chan []byte
	Gateway   *Gateway

	Table *table.Table

	done     chan struct{}
	stopOnce sync.Once

	errSeq uint64
}

// shutdown unwinds the pumps: closing done stops writePump, and closing the
// socket unblocks readPump.
func (c *Connection) shutdown() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

// Gateway manages WebSocket connections and routes messages to sessions.
type Gateway struct {
	mu           sync.RWMutex
	connections  map[string]*Connection
	accountConns map[uint64]*Connection
	nextConnID   uint64

	lobby *lobby.Lobby
	auth  auth.Service
}

func New(lby *lobby.Lobby, authService auth.Service) *Gateway {
	return &Gateway{
		connections:  make(map[string]*Connection),
		accountConns: make(map[uint64]*Connection),
		lobby:        lby,
		auth:         authService,
	}
}

// HandleWebSocket upgrades the request and starts the pumps. The client must
// authenticate with a join message before anything else is accepted.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:      connID,
		Conn:    conn,
		Send:    make(chan []byte, sendQueueSize),
		Gateway: g,
		done:    make(chan struct{}),
	}
	g.connections[connID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", connID, len(g.connections))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.shutdown()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var env codec.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[Gateway] Failed to decode message from %s: %v", c.ID, err)
		c.sendError(codeBadMessage, "invalid message format")
		return
	}

	if env.Type == codec.ClientJoin {
		c.handleJoin(env)
		return
	}
	if c.AccountID == 0 {
		c.sendError(codeUnauthorized, "join first")
		return
	}

	switch env.Type {
	case codec.ClientDeal:
		c.submit(table.Event{Type: table.EventDeal})
	case codec.ClientAction:
		action, ok := codec.ParseAction(env.Action)
		if !ok {
			c.sendError(codeBadAction, fmt.Sprintf("unknown action %q", env.Action))
			return
		}
		c.submit(table.Event{Type: table.EventAction, Action: action})
	case codec.ClientHint:
		c.submit(table.Event{Type: table.EventHint})
	case codec.ClientStats:
		c.submit(table.Event{Type: table.EventStats})
	default:
		c.sendError(codeBadMessage, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (c *Connection) handleJoin(env codec.ClientEnvelope) {
	accountID, username, ok := c.Gateway.auth.ResolveSession(env.Token)
	if !ok {
		c.sendError(codeUnauthorized, "invalid session token")
		return
	}

	t, err := c.Gateway.lobby.QuickStart(accountID, c.Gateway.broadcastToAccount)
	if err != nil {
		c.sendError(codeTableError, err.Error())
		return
	}

	c.Gateway.mu.Lock()
	// A newer connection replaces the account's previous one. The replaced
	// connection may still be mid-dispatch, so it is signalled rather than
	// having its channel closed out from under it.
	if prev, exists := c.Gateway.accountConns[accountID]; exists && prev != c {
		prev.shutdown()
	}
	c.AccountID = accountID
	c.Username = username
	c.Table = t
	c.Gateway.accountConns[accountID] = c
	c.Gateway.mu.Unlock()

	c.sendEnvelope(&codec.Welcome{
		AccountID: accountID,
		Username:  username,
		TableID:   t.ID,
	})
	if err := t.SubmitEvent(table.Event{Type: table.EventJoin}); err != nil {
		c.sendError(codeTableError, err.Error())
		return
	}

	log.Printf("[Gateway] Account %d (%s) joined table %s via %s", accountID, username, t.ID, c.ID)
}

func (c *Connection) submit(e table.Event) {
	if c.Table == nil {
		c.sendError(codeNoTable, "not at a table")
		return
	}
	if err := c.Table.SubmitEvent(e); err != nil {
		c.sendError(codeTableError, err.Error())
	}
}

func (c *Connection) sendError(code int32, msg string) {
	c.sendEnvelope(&codec.ErrorResponse{Code: code, Message: msg})
}

// sendEnvelope pushes a connection-scoped message (errors, welcome); table
// payloads travel through the broadcast callback instead.
func (c *Connection) sendEnvelope(payload any) {
	env := codec.WrapServerEnvelope(atomic.AddUint64(&c.errSeq, 1), payload)
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Gateway] Marshal envelope failed: %v", err)
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
		// Drop if buffer full
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	if c.AccountID != 0 && g.accountConns[c.AccountID] == c {
		delete(g.accountConns, c.AccountID)
	}
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}

// broadcastToAccount delivers a table payload to the account's connection.
func (g *Gateway) broadcastToAccount(accountID uint64, data []byte) {
	g.mu.RLock()
	c := g.accountConns[accountID]
	g.mu.RUnlock()

	if c != nil {
		select {
		case c.Send <- data:
		case <-c.done:
		default:
			// Drop if buffer full
		}
	}
}
