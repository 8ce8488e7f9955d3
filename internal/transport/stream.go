package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Stream is one live websocket connection to the quality backend. It
// decodes the JSON event envelope and hands server events to the sink;
// outbound commands go through Send. When the connection drops for any
// reason Done() is closed, and the selector decides what happens next.
type Stream struct {
	conn   *websocket.Conn
	logger logger.Logger

	send chan models.StreamEvent
	sink func(models.StreamEvent)

	pingInterval time.Duration
	readWait     time.Duration

	closed       atomic.Bool
	quit         chan struct{} // orderly shutdown: writer flushes then stops
	done         chan struct{} // connection unusable
	writerExited chan struct{}
	wg           sync.WaitGroup
}

// DialStream opens the websocket within cfg.ConnectTimeout and starts the
// read/write pumps. Every received server event is passed to sink in
// delivery order.
func DialStream(ctx context.Context, cfg config.StreamConfig, sink func(models.StreamEvent), log logger.Logger) (*Stream, error) {
	connectTimeout := time.Duration(cfg.ConnectTimeout) * time.Millisecond
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: connectTimeout,
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.WriteBufferSize,
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stream dial failed: %w", err)
	}

	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	s := &Stream{
		conn:         conn,
		logger:       log,
		send:         make(chan models.StreamEvent, 16),
		sink:         sink,
		pingInterval: pingInterval,
		readWait:     pingInterval * 2,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		writerExited: make(chan struct{}),
	}

	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	s.wg.Add(2)
	go s.readPump()
	go s.writePump()
	return s, nil
}

// Send queues an outbound event. Returns false if the connection is down
// or the send buffer is full; a stream never blocks its caller.
func (s *Stream) Send(ev models.StreamEvent) bool {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- ev:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn("stream send buffer full, dropping event", "event", ev.Event)
		return false
	}
}

// Done is closed when the connection is no longer usable.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close tears the connection down in order: the writer flushes any
// queued events (the unsubscribe in particular), a close frame goes out,
// then the socket closes. Safe to call any number of times and after the
// peer already disconnected.
func (s *Stream) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.quit)
		select {
		case <-s.writerExited:
		case <-time.After(2 * time.Second):
		}
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		close(s.done)
		_ = s.conn.Close()
	}
	s.wg.Wait()
}

func (s *Stream) readPump() {
	defer s.wg.Done()
	defer s.closeFromPump()

	_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.readWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.logger.Warn("stream read failed", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait))

		var ev models.StreamEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.logger.Warn("malformed stream frame, skipping", "error", err)
			continue
		}
		s.sink(ev)
	}
}

func (s *Stream) writePump() {
	defer s.wg.Done()
	defer close(s.writerExited)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.send:
			if !s.writeEvent(ev) {
				s.closeFromPump()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.closeFromPump()
				return
			}

		case <-s.quit:
			// flush whatever is queued before the socket closes
			for {
				select {
				case ev := <-s.send:
					if !s.writeEvent(ev) {
						return
					}
				default:
					return
				}
			}

		case <-s.done:
			return
		}
	}
}

func (s *Stream) writeEvent(ev models.StreamEvent) bool {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to marshal outbound event", "event", ev.Event, "error", err)
		return true // not a connection failure
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		if !s.closed.Load() {
			s.logger.Warn("stream write failed", "event", ev.Event, "error", err)
		}
		return false
	}
	return true
}

// closeFromPump marks the connection dead from inside a pump, which
// cannot wait for its own exit.
func (s *Stream) closeFromPump() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
		_ = s.conn.Close()
	}
}
