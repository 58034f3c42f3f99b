package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans review and import updates out to connected learners. Each learner
// gets one Redis pub/sub subscription shared by all of their sockets, so the
// study UI sees state changes the moment a review lands on any device.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	learnerIDStr, _ := claims["user_id"].(string)
	learnerID, err := uuid.Parse(learnerIDStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(learnerID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(learnerID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(learnerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[learnerID] = append(h.connections[learnerID], conn)

	// First socket for this learner starts the shared subscription
	if len(h.connections[learnerID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[learnerID] = cancel
		go h.subscribeToPubSub(ctx, learnerID)
	}

	log.Printf("WebSocket connected: learner %s (total: %d)", learnerID, len(h.connections[learnerID]))
}

func (h *Hub) unregisterConnection(learnerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[learnerID]
	for i, c := range conns {
		if c == conn {
			h.connections[learnerID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[learnerID]) == 0 {
		delete(h.connections, learnerID)
		if cancel, ok := h.cancelFuncs[learnerID]; ok {
			cancel()
			delete(h.cancelFuncs, learnerID)
		}
	}

	log.Printf("WebSocket disconnected: learner %s", learnerID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, learnerID uuid.UUID) {
	channel := "learner_updates:" + learnerID.String()
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(learnerID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(learnerID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[learnerID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// SendToLearner bypasses pub/sub for messages that only matter on this node.
func (h *Hub) SendToLearner(learnerID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(learnerID, data)
}
