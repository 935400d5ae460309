package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/houzhh15/discussion-host/pkg/logger"
	"github.com/houzhh15/discussion-host/pkg/metrics"
)

// ResultAction is the row action tag that marks a finished analysis.
const ResultAction = "result"

const (
	defaultHeartbeat   = 25 * time.Second
	defaultJoinTimeout = 10 * time.Second
	phoenixTopic       = "phoenix"
)

// Row is one inserted file_events row. Only Action is consulted.
type Row struct {
	Action string          `json:"action"`
	Result json.RawMessage `json:"result,omitempty"`
	Record json.RawMessage `json:"-"`
}

// IsResult reports whether the row announces a finished analysis.
func (r Row) IsResult() bool {
	return r.Action == ResultAction
}

// Subscription is an open realtime subscription.
type Subscription interface {
	Close() error
}

// Subscriber opens insert-event subscriptions. handler runs on the
// subscription's reader goroutine.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(Row)) (Subscription, error)
}

// RealtimeConfig configures a RealtimeClient.
type RealtimeConfig struct {
	// URL is the realtime websocket endpoint, see RealtimeURL.
	URL    string
	APIKey string
	Schema string
	Table  string
	// Heartbeat is the keepalive interval.
	Heartbeat   time.Duration
	JoinTimeout time.Duration
	Logger      *slog.Logger
}

// RealtimeURL derives the websocket endpoint of a Supabase project URL.
func RealtimeURL(projectURL, apiKey string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(projectURL))
	if err != nil {
		return "", fmt.Errorf("parse realtime project url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("realtime project url %q must be http(s) or ws(s)", projectURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RealtimeClient subscribes to row inserts through the Phoenix channel
// protocol spoken by Supabase Realtime.
type RealtimeClient struct {
	cfg    RealtimeConfig
	dialer *websocket.Dialer
	log    *slog.Logger
}

// NewRealtimeClient creates a client; Schema and Table default to
// public.file_events.
func NewRealtimeClient(cfg RealtimeConfig) *RealtimeClient {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.Table == "" {
		cfg.Table = "file_events"
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	return &RealtimeClient{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		log:    logger.OrDiscard(cfg.Logger).With("component", "realtime"),
	}
}

type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type phxReply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Type   string          `json:"type"`
		Schema string          `json:"schema"`
		Table  string          `json:"table"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

func (c *RealtimeClient) topic() string {
	return "realtime:" + c.cfg.Table
}

func (c *RealtimeClient) joinPayload() map[string]any {
	p := map[string]any{
		"config": map[string]any{
			"broadcast": map[string]any{"self": false},
			"presence":  map[string]any{"key": ""},
			"postgres_changes": []map[string]string{{
				"event":  "INSERT",
				"schema": c.cfg.Schema,
				"table":  c.cfg.Table,
			}},
		},
	}
	if c.cfg.APIKey != "" {
		p["access_token"] = c.cfg.APIKey
	}
	return p
}

// Subscribe connects, joins the table channel and starts delivering inserted
// rows to handler until the subscription is closed.
func (c *RealtimeClient) Subscribe(ctx context.Context, handler func(Row)) (Subscription, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	s := &realtimeSubscription{
		conn:    conn,
		topic:   c.topic(),
		handler: handler,
		log:     c.log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	joinRef, err := s.send(s.topic, "phx_join", c.joinPayload())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join realtime channel: %w", err)
	}
	if err := s.awaitJoin(ctx, joinRef, c.cfg.JoinTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.log.Info("realtime channel joined", "topic", s.topic)

	go s.readLoop()
	go s.heartbeatLoop(c.cfg.Heartbeat)
	return s, nil
}

type realtimeSubscription struct {
	conn    *websocket.Conn
	topic   string
	handler func(Row)
	log     *slog.Logger

	writeMu sync.Mutex
	ref     atomic.Int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (s *realtimeSubscription) send(topic, event string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", event, err)
	}
	ref := strconv.FormatInt(s.ref.Add(1), 10)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ref, s.conn.WriteJSON(phxMessage{Topic: topic, Event: event, Payload: body, Ref: ref})
}

func (s *realtimeSubscription) awaitJoin(ctx context.Context, ref string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		var msg phxMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("await realtime join: %w", err)
		}
		if msg.Event != "phx_reply" || msg.Ref != ref {
			continue
		}
		var reply phxReply
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("decode join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("realtime join rejected: %s %s", reply.Status, string(reply.Response))
		}
		return nil
	}
}

func (s *realtimeSubscription) readLoop() {
	defer close(s.done)
	for {
		var msg phxMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.stop:
			default:
				s.log.Warn("realtime connection lost", "error", err)
			}
			return
		}
		if msg.Topic != s.topic || msg.Event != "postgres_changes" {
			continue
		}

		var change changePayload
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			s.log.Warn("malformed realtime change", "error", err)
			continue
		}
		if change.Data.Type != "" && change.Data.Type != "INSERT" {
			continue
		}

		var row Row
		if err := json.Unmarshal(change.Data.Record, &row); err != nil {
			s.log.Warn("malformed realtime row", "error", err)
			continue
		}
		row.Record = change.Data.Record
		metrics.RecordRealtimeEvent(row.Action)
		s.log.Debug("realtime row received", "action", row.Action)
		if s.handler != nil {
			s.handler(row)
		}
	}
}

func (s *realtimeSubscription) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.send(phoenixTopic, "heartbeat", map[string]any{}); err != nil {
				s.log.Warn("realtime heartbeat failed", "error", err)
				return
			}
		case <-s.stop:
			return
		case <-s.done:
			return
		}
	}
}

// Close leaves the channel and closes the connection. Safe to call more than
// once.
func (s *realtimeSubscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		_, _ = s.send(s.topic, "phx_leave", map[string]any{})

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()

		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
		}
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
