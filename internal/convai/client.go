// Package convai implements the duplex WebSocket channel to an ElevenLabs
// Conversational AI agent. Outbound microphone audio is framed as
// {"user_audio_chunk": <base64 PCM>}; inbound frames are scanned for
// audio_event payloads and everything else is ignored.
package convai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWSBase = "wss://api.elevenlabs.io/v1/convai/conversation"

const writeTimeout = 5 * time.Second

// Config carries the credentials and endpoint for one conversation.
type Config struct {
	// AgentID identifies the conversational agent.
	AgentID string
	// APIKey authorizes access to private agents via the xi-api-key header.
	APIKey string
	// BaseWSURL overrides the production endpoint, mainly for tests.
	BaseWSURL string
}

// Event is one decoded inbound message of interest. Only agent audio is
// surfaced; all other message shapes fall through the ignore path.
type Event struct {
	// Audio is raw 16-bit LE PCM decoded from audio_event.audio_base_64.
	Audio []byte
}

// Client is a message-framed duplex channel to the agent. Events closes when
// the connection drops, after which Err reports the transport error, if any.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	events    chan Event
	closed    chan struct{}
	closeOnce sync.Once

	errMu   sync.Mutex
	lastErr error
}

// Dial opens the conversation socket for cfg.AgentID.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AgentID) == "" {
		return nil, fmt.Errorf("convai: agent id is required")
	}
	wsURL, err := buildWSURL(cfg.BaseWSURL, cfg.AgentID)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		header.Set("xi-api-key", key)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("convai: dial %s: %w", wsURL, err)
	}
	c := &Client{
		conn:   conn,
		events: make(chan Event, 64),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// SendAudio transmits one PCM chunk as a user_audio_chunk message. The write
// is serialized and bounded by a deadline; an error here means the chunk was
// lost, which callers treat as an ordinary drop.
func (c *Client) SendAudio(pcm []byte) error {
	payload := outboundAudio{UserAudioChunk: base64.StdEncoding.EncodeToString(pcm)}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(payload)
}

// Events returns the inbound event stream. The channel closes once the
// connection is gone, whether by Close, a clean remote close, or an error.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Safe to call more than once and
// concurrently with the read loop.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
	return nil
}

// Err reports the transport error that ended the connection, or nil if the
// socket closed cleanly (locally or via a normal close frame).
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

type outboundAudio struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

type inboundMessage struct {
	AudioEvent *struct {
		AudioBase64 string `json:"audio_base_64"`
	} `json:"audio_event"`
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.recordReadError(err)
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.AudioEvent == nil {
			continue
		}
		audio, err := decodeBase64Any(msg.AudioEvent.AudioBase64)
		if err != nil || len(audio) == 0 {
			continue
		}

		select {
		case c.events <- Event{Audio: audio}:
		case <-c.closed:
			return
		}
	}
}

func (c *Client) recordReadError(err error) {
	select {
	case <-c.closed:
		// Local close; the read error is just the torn-down socket.
		return
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
}

func buildWSURL(base, agentID string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = defaultWSBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("convai: invalid ws base url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("agent_id", agentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeBase64Any(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("convai: invalid base64 audio")
}
