package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"PosTerminal/app/models"
	"PosTerminal/app/services"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	TypeOrderNew      MessageType = "order_new"
	TypeOrderUpdate   MessageType = "order_update"
	TypeOrderReady    MessageType = "order_ready"
	TypeKitchenOrder  MessageType = "kitchen_order"
	TypeKitchenAck    MessageType = "kitchen_ack" // Kitchen accepts a pending order
	TypeCategoryOrder MessageType = "category_order"
	TypeToasts        MessageType = "toasts"
	TypeHeartbeat     MessageType = "heartbeat"
	TypeAuthenticate  MessageType = "authenticate"
	TypeAuthResponse  MessageType = "auth_response"
	TypeError         MessageType = "error"
)

// ClientType represents the type of connected client
type ClientType string

const (
	ClientPOS     ClientType = "pos"
	ClientKitchen ClientType = "kitchen"
	ClientWaiter  ClientType = "waiter"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	ClientID  string          `json:"client_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	Type        ClientType
	Connection  *websocket.Conn
	Send        chan []byte
	Server      *Server
	ConnectedAt time.Time
	RemoteAddr  string

	mu     sync.Mutex
	claims *services.Claims
}

// Server is the hub for companion devices (kitchen display, waiter phones, second POS)
type Server struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	port       int
	enableMDNS bool

	rest         *RESTHandlers
	logger       *services.LoggerService
	httpServer   *http.Server
	hubOnce      sync.Once
	mdnsShutdown chan struct{}
}

// NewServer creates a new WebSocket server
func NewServer(port int, enableMDNS bool) *Server {
	return &Server{
		clients:      make(map[string]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		port:         port,
		enableMDNS:   enableMDNS,
		mdnsShutdown: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from local network
				return true
			},
		},
	}
}

// SetRESTHandlers attaches the REST API served next to /ws
func (s *Server) SetRESTHandlers(rest *RESTHandlers) {
	s.rest = rest
	rest.server = s
}

// SetLogger routes hub, connection and REST logs to logger
func (s *Server) SetLogger(logger *services.LoggerService) {
	s.logger = logger
}

func (s *Server) logInfo(message string, details ...string) {
	if s != nil && s.logger != nil {
		s.logger.LogInfo(message, details...)
	}
}

func (s *Server) logWarning(message string, details ...string) {
	if s != nil && s.logger != nil {
		s.logger.LogWarning(message, details...)
	}
}

func (s *Server) logError(message string, err error, details ...string) {
	if s != nil && s.logger != nil {
		s.logger.LogError(message, err, details...)
	}
}

// Handler returns the HTTP handler of the server and starts the hub loop
func (s *Server) Handler() http.Handler {
	s.hubOnce.Do(func() { go s.run() })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	if s.rest != nil {
		s.rest.Register(mux)
		s.logInfo("WebSocket server: REST API endpoints registered")
	}
	return mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.enableMDNS {
		go s.startMDNS()
	}

	s.logInfo("WebSocket server starting", fmt.Sprintf("port=%d", s.port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// startMDNS announces the POS server via mDNS/Zeroconf
func (s *Server) startMDNS() {
	server, err := zeroconf.Register(
		"POS Terminal",          // Service instance name
		"_posserver._tcp",       // Service type
		"local.",                // Domain
		s.port,                  // Port
		[]string{"version=1.0"}, // TXT records
		nil,                     // Network interfaces (nil = all)
	)
	if err != nil {
		s.logError("mDNS: Failed to register service", err)
		return
	}
	s.logInfo("mDNS: POS Terminal announced on _posserver._tcp.local")

	<-s.mdnsShutdown
	server.Shutdown()
	s.logInfo("mDNS: Service announcement stopped")
}

// Stop shuts the HTTP server down and disconnects every client
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.mdnsShutdown:
	default:
		close(s.mdnsShutdown)
	}

	s.mu.Lock()
	for id, client := range s.clients {
		client.Connection.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run handles the main server loop
func (s *Server) run() {
	ticker := time.NewTicker(30 * time.Second) // Heartbeat every 30 seconds
	defer ticker.Stop()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			s.logInfo("Client registered", fmt.Sprintf("id=%s type=%s", client.ID, client.Type))
			s.sendAuthResponse(client, true, "Connected successfully")

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				close(client.Send)
				s.logInfo("Client unregistered", client.ID)
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.sendHeartbeat()
		}
	}
}

// handleWebSocket handles WebSocket connection upgrades
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientType := ClientType(r.URL.Query().Get("type"))
	switch clientType {
	case ClientPOS, ClientKitchen, ClientWaiter:
	default:
		clientType = ClientPOS
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logError("WebSocket upgrade failed", err, r.RemoteAddr)
		return
	}

	client := &Client{
		ID:          generateClientID(),
		Type:        clientType,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"clients": s.ClientCount(),
		"time":    time.Now(),
	})
}

// readPump handles reading messages from the client
func (c *Client) readPump() {
	defer func() {
		c.Server.unregister <- c
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Server.logError("WebSocket connection closed unexpectedly", err, c.ID)
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.Server.logWarning("Dropped malformed message", fmt.Sprintf("client=%s error=%v", c.ID, err))
			continue
		}
		c.handleMessage(&message)
	}
}

// writePump handles writing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages from clients
func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case TypeAuthenticate:
		c.handleAuthenticate(message)

	case TypeHeartbeat:
		c.sendMessage(newMessage(TypeHeartbeat, map[string]string{"status": "alive"}))

	case TypeKitchenAck:
		c.handleKitchenAck(message)

	default:
		c.Server.logWarning("Unknown message type", fmt.Sprintf("type=%s client=%s", message.Type, c.ID))
	}
}

type authenticateData struct {
	Token string `json:"token"`
}

// handleAuthenticate binds a session token to the connection
func (c *Client) handleAuthenticate(message *Message) {
	if c.Server.rest == nil || c.Server.rest.auth == nil {
		c.Server.sendAuthResponse(c, false, "authentication unavailable")
		return
	}
	var data authenticateData
	if err := json.Unmarshal(message.Data, &data); err != nil {
		c.Server.sendAuthResponse(c, false, "malformed authenticate message")
		return
	}
	claims, err := c.Server.rest.auth.ParseToken(data.Token)
	if err != nil {
		c.Server.sendAuthResponse(c, false, "invalid token")
		return
	}

	c.mu.Lock()
	c.claims = claims
	c.mu.Unlock()
	c.Server.sendAuthResponse(c, true, fmt.Sprintf("authenticated as %s", claims.Subject))
}

// can reports whether the authenticated user of the connection holds p
func (c *Client) can(p services.Permission) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claims != nil && services.PermissionsFor(c.claims.Role).Can(p)
}

// KitchenAckData identifies the order a kitchen display accepts
type KitchenAckData struct {
	OrderID string `json:"order_id"`
}

// handleKitchenAck moves a pending order to preparing
func (c *Client) handleKitchenAck(message *Message) {
	if c.Type != ClientKitchen || !c.can(services.PermAdvanceKitchen) {
		c.sendMessage(newMessage(TypeError, map[string]string{"error": models.ErrForbidden.Error()}))
		return
	}
	if c.Server.rest == nil || c.Server.rest.kitchen == nil {
		return
	}

	var ack KitchenAckData
	if err := json.Unmarshal(message.Data, &ack); err != nil {
		c.Server.logWarning("Malformed kitchen ack", fmt.Sprintf("client=%s error=%v", c.ID, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Advance broadcasts the result to every device
	if _, err := c.Server.rest.kitchen.Advance(ctx, ack.OrderID); err != nil {
		c.sendMessage(newMessage(TypeError, map[string]string{"error": err.Error()}))
	}
}

// sendMessage queues a message for the client
func (c *Client) sendMessage(message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}

func newMessage(t MessageType, payload interface{}) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return Message{Type: t, Timestamp: time.Now(), Data: data}
}

// broadcastTo sends message to every client of the given types, or all clients when none are given
func (s *Server) broadcastTo(message Message, types ...ClientType) {
	data, err := json.Marshal(message)
	if err != nil {
		s.logError("Failed to marshal message", err, string(message.Type))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		if len(types) > 0 && !containsType(types, client.Type) {
			continue
		}
		select {
		case client.Send <- data:
		default:
			s.logWarning("Client send buffer full, message dropped", client.ID)
		}
	}
}

func containsType(types []ClientType, t ClientType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// OrderCreated sends a new order to kitchen displays and the other devices
func (s *Server) OrderCreated(order models.Order) {
	s.broadcastTo(newMessage(TypeKitchenOrder, order), ClientKitchen)
	s.broadcastTo(newMessage(TypeOrderNew, order), ClientPOS, ClientWaiter)
}

// OrderUpdated announces a status change; ready orders also notify waiters
func (s *Server) OrderUpdated(order models.Order) {
	s.broadcastTo(newMessage(TypeOrderUpdate, order))
	if order.Status == models.OrderStatusReady {
		s.broadcastTo(newMessage(TypeOrderReady, order), ClientWaiter, ClientPOS)
	}
}

// BroadcastCategoryOrder pushes the current category order to POS devices
func (s *Server) BroadcastCategoryOrder(categories []models.Category) {
	s.broadcastTo(newMessage(TypeCategoryOrder, categories), ClientPOS)
}

// BroadcastToasts mirrors the toast queue to POS devices
func (s *Server) BroadcastToasts(toasts []models.Toast) {
	s.broadcastTo(newMessage(TypeToasts, toasts), ClientPOS)
}

// sendHeartbeat sends heartbeat to all clients
func (s *Server) sendHeartbeat() {
	s.broadcastTo(newMessage(TypeHeartbeat, map[string]string{"ping": "pong"}))
}

// sendAuthResponse sends authentication response to a client
func (s *Server) sendAuthResponse(client *Client, success bool, message string) {
	client.sendMessage(newMessage(TypeAuthResponse, map[string]interface{}{
		"success":   success,
		"message":   message,
		"client_id": client.ID,
	}))
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// GetServerStatus returns current server status
func (s *Server) GetServerStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[ClientType]int{}
	for _, client := range s.clients {
		counts[client.Type]++
	}

	return map[string]interface{}{
		"running":         s.httpServer != nil,
		"port":            s.port,
		"total_clients":   len(s.clients),
		"kitchen_clients": counts[ClientKitchen],
		"waiter_clients":  counts[ClientWaiter],
		"pos_clients":     counts[ClientPOS],
	}
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

func generateClientID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// GetConnectedClients returns a summary of every connected client
func (s *Server) GetConnectedClients() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]map[string]interface{}, 0, len(s.clients))
	for _, client := range s.clients {
		info := map[string]interface{}{
			"id":           client.ID,
			"type":         client.Type,
			"connected_at": client.ConnectedAt,
			"remote_addr":  client.RemoteAddr,
		}
		client.mu.Lock()
		if client.claims != nil {
			info["user"] = client.claims.Subject
		}
		client.mu.Unlock()
		clients = append(clients, info)
	}
	return clients
}

// DisconnectClient closes the connection of a client; its read pump unregisters it
func (s *Server) DisconnectClient(clientID string) error {
	s.mu.RLock()
	client, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("client %s not found", clientID)
	}
	return client.Connection.Close()
}
