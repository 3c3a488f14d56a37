package pubsub

import "sync"

// Conn is the subset of a websocket connection the hub needs. It is an
// interface so tests can use an in-memory fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Event is the envelope for everything sent down a socket.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Client is a single connected socket. One user may hold several clients
// at once (multiple tabs or devices).
type Client struct {
	UserID string

	conn Conn
	mu   sync.Mutex
}

func NewClient(userID string, conn Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
	}
}

// Emit writes one event to the socket. Writes are serialized because
// gorilla/websocket allows only one concurrent writer.
func (client *Client) Emit(event string, payload any) error {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.conn.WriteJSON(Event{Event: event, Payload: payload})
}

func (client *Client) Close() error {
	return client.conn.Close()
}
