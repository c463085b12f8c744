package websockets

import (
	"fmt"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	PING_INTERVAL     = 30 * time.Second
	PONG_TIMEOUT      = 60 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	AUTH_TIMEOUT      = 10 * time.Second
	MAX_MESSAGE_SIZE  = 64 * 1024
	SEND_CHANNEL_SIZE = 64

	SYSTEM_CHANNEL = "system"
)

type Message struct {
	ID        string             `json:"id"`
	Type      events.MessageType `json:"type"`
	Channel   string             `json:"channel,omitempty"`
	Action    string             `json:"action,omitempty"`
	Data      map[string]any     `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type Client struct {
	ID         string
	ProfileID  uuid.UUID
	Connection *websocket.Conn
	Manager    *Manager
	Status     int
	send       chan Message
}

// Manager serves the admin live feed: workflow and follow-up events are pushed to every
// authenticated admin connection.
type Manager struct {
	hub      *Hub
	db       database.DB
	tokens   TokenValidator
	profiles repositories.ProfileRepository
	config   config.Config
	log      logger.Logger
	eventBus *events.EventBus
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	tokens TokenValidator,
	profiles repositories.ProfileRepository,
	config config.Config,
) (*Manager, error) {
	log := logger.New("websockets")

	manager := newManager(db, tokens, profiles, config)
	manager.eventBus = eventBus

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if err := manager.subscribeToFeedEvents(); err != nil {
		return nil, log.Function("New").Err("failed to subscribe to feed events", err)
	}

	return manager, nil
}

func newManager(
	db database.DB,
	tokens TokenValidator,
	profiles repositories.ProfileRepository,
	config config.Config,
) *Manager {
	return &Manager{
		hub: &Hub{
			broadcast:  make(chan Message, SEND_CHANNEL_SIZE),
			register:   make(chan *Client),
			unregister: make(chan *Client),
			clients:    make(map[string]*Client),
		},
		db:       db,
		tokens:   tokens,
		profiles: profiles,
		config:   config,
		log:      logger.New("websockets"),
	}
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")
	clientID := uuid.New().String()

	client := &Client{
		ID:         clientID,
		Connection: c,
		Manager:    m,
		Status:     STATUS_UNAUTHENTICATED,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	authRequest := newMessage(events.AUTH_REQUEST, SYSTEM_CHANNEL, "authenticate", nil)
	if err := c.WriteJSON(authRequest); err != nil {
		log.Er("failed to send auth request", err)
		if err := c.Close(); err != nil {
			log.Er("failed to close connection", err)
		}
		return
	}

	m.hub.register <- client
	defer func() {
		m.hub.unregister <- client
		if err := c.Close(); err != nil {
			log.Er("failed to close connection", err)
		}
	}()

	go client.startAuthTimeout()
	go client.readPump()
	client.writePump()
}

// BroadcastMessage queues message for every authenticated client. A full queue drops it.
func (m *Manager) BroadcastMessage(message Message) {
	log := m.log.Function("BroadcastMessage")

	select {
	case m.hub.broadcast <- message:
	default:
		log.Warn("Broadcast channel is full, dropping message", "messageID", message.ID)
	}
}

func (m *Manager) subscribeToFeedEvents() error {
	for _, channel := range []events.Channel{events.WORKFLOW_CHANNEL, events.FOLLOWUP_CHANNEL} {
		if err := m.eventBus.Subscribe(channel, m.forwardEvent); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) forwardEvent(event events.Event) error {
	m.BroadcastMessage(messageFromEvent(event))
	return nil
}

func messageFromEvent(event events.Event) Message {
	action := ""
	if kind, ok := event.Data["kind"]; ok && kind != nil {
		action = fmt.Sprint(kind)
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	id := event.ID
	if id == "" {
		id = uuid.New().String()
	}

	return Message{
		ID:        id,
		Type:      event.Type,
		Channel:   event.Channel.String(),
		Action:    action,
		Data:      event.Data,
		Timestamp: timestamp,
	}
}

func newMessage(messageType events.MessageType, channel, action string, data map[string]any) Message {
	return Message{
		ID:        uuid.New().String(),
		Type:      messageType,
		Channel:   channel,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer func() {
		c.Manager.hub.unregister <- c
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
			log.Er("failed to set read deadline in pong handler", err, "clientID", c.ID)
		}
		return nil
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				log.Er("Unexpected close error", err, "clientID", c.ID)
			}
			break
		}

		message.Timestamp = time.Now().UTC()
		c.routeMessage(message)
	}
}

func (c *Client) routeMessage(message Message) {
	log := c.Manager.log.Function("routeMessage")

	if message.Type == events.AUTH_RESPONSE {
		c.handleAuthResponse(message)
		return
	}

	if c.Manager.clientStatus(c) != STATUS_AUTHENTICATED {
		log.Warn("Blocking message from unauthenticated client", "clientID", c.ID, "messageType", message.Type)
		c.enqueue(newMessage(
			events.AUTH_FAILURE,
			SYSTEM_CHANNEL,
			"authentication_required",
			map[string]any{"reason": "Authentication required"},
		))
		return
	}

	switch message.Type {
	case events.PING:
		c.enqueue(newMessage(events.PONG, SYSTEM_CHANNEL, "", nil))
	default:
		// the feed is push-only
		log.Debug("Ignoring client message", "clientID", c.ID, "messageType", message.Type)
	}
}

// enqueue never blocks the read loop; a client that stops draining loses messages.
func (c *Client) enqueue(message Message) {
	defer func() {
		// send is closed once the hub has unregistered the client
		_ = recover()
	}()

	select {
	case c.send <- message:
	default:
		c.Manager.log.Warn("Client send buffer full, dropping message", "clientID", c.ID)
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")
	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("failed to write message", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
