package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/protocol"
)

// subscriber is one websocket connection following a session. All writes
// go through send and are performed by the subscriber's write loop.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSubscriber(conn *websocket.Conn, queue int) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

func (c *subscriber) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue queues data without blocking. It reports false when the queue is
// full.
func (c *subscriber) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// ServeWS upgrades the request to a websocket and streams frames to it
// until either side closes.
//
// A new subscriber first receives a snapshot frame of the current cycle.
// A subscriber reconnecting with ?cycle=N receives the buffered patches
// frames after N instead, when they are all still available.
func (s *Session) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", verrors.Attr(err))
		return
	}

	c := newSubscriber(conn, s.config.SendQueue)
	if err := s.attach(c, r.URL.Query().Get("cycle")); err != nil {
		s.logger.Warn("subscriber rejected", verrors.Attr(err))
		s.writeError(c, err)
		c.close()
		return
	}

	go s.writeLoop(c)
	s.readLoop(c)
}

// attach queues the frames that bring c to the current cycle and registers
// it for broadcasts.
func (s *Session) attach(c *subscriber, since string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	frames, resumed := s.resumeFrames(since)
	if !resumed {
		data, err := s.snapshotFrame()
		if err != nil {
			return err
		}
		frames = [][]byte{data}
	}
	if len(frames) > cap(c.send) {
		// Too far behind to queue the replay.
		data, err := s.snapshotFrame()
		if err != nil {
			return err
		}
		frames = [][]byte{data}
	}
	for _, f := range frames {
		c.enqueue(f)
	}

	s.subs[c] = struct{}{}
	s.metrics.subscriberAdded()
	s.logger.Debug("subscriber attached", "cycle", s.cycle, "resumed", resumed, "frames", len(frames))
	return nil
}

// resumeFrames returns the patches frames after the cycle named by since.
// It reports false when since is absent or the frames are no longer
// buffered.
func (s *Session) resumeFrames(since string) ([][]byte, bool) {
	if since == "" {
		return nil, false
	}
	cycle, err := strconv.ParseUint(since, 10, 64)
	if err != nil || cycle > s.cycle {
		return nil, false
	}
	if cycle == s.cycle {
		return nil, true
	}
	if !s.history.CanRecover(cycle) {
		return nil, false
	}
	frames := s.history.Frames(cycle, s.cycle)
	return frames, frames != nil
}

// detach unregisters and closes c.
func (s *Session) detach(c *subscriber) {
	s.mu.Lock()
	if _, ok := s.subs[c]; ok {
		delete(s.subs, c)
		s.metrics.subscriberRemoved()
	}
	s.mu.Unlock()
	c.close()
}

// broadcast queues data on every subscriber. Subscribers that cannot keep
// up are disconnected. Called with s.mu held.
func (s *Session) broadcast(data []byte) {
	for c := range s.subs {
		if !c.enqueue(data) {
			s.logger.Warn("subscriber too slow, disconnecting")
			delete(s.subs, c)
			s.metrics.subscriberRemoved()
			s.metrics.subscriberDropped()
			c.close()
		}
	}
}

// disconnectAll closes every subscriber. When last is set it is written
// first, followed by a close message. Called with s.mu held.
func (s *Session) disconnectAll(last []byte) {
	for c := range s.subs {
		delete(s.subs, c)
		s.metrics.subscriberRemoved()
		if last != nil && c.enqueue(last) && c.enqueue(nil) {
			continue
		}
		c.close()
	}
}

// readLoop reads frames from c until the connection fails.
func (s *Session) readLoop(c *subscriber) {
	defer s.detach(c)

	c.conn.SetReadLimit(s.config.MaxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		c.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", verrors.Attr(err))
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.metrics.event("malformed")
			s.reject(c, verrors.FromError(err, "E201"))
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				s.metrics.event("malformed")
				s.reject(c, verrors.FromError(err, "E201"))
				continue
			}
			if err := s.HandleEvent(ev); err != nil {
				s.reject(c, err)
			}

		default:
			s.reject(c, verrors.New("E203").WithDetail("frame type "+frame.Type.String()))
		}
	}
}

// reject queues a non-fatal error frame for c.
func (s *Session) reject(c *subscriber, err error) {
	s.logger.Debug("frame rejected", verrors.Attr(err))
	c.enqueue(protocol.NewError(err).Encode().Encode())
}

// writeError writes a fatal error frame directly. Used before the write
// loop starts.
func (s *Session) writeError(c *subscriber, err error) {
	c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if werr := c.conn.WriteMessage(websocket.BinaryMessage, fatalFrame(err)); werr != nil {
		s.logger.Debug("error frame not sent", verrors.Attr(werr))
	}
}

// writeLoop writes queued frames and heartbeat pings until c closes.
func (s *Session) writeLoop(c *subscriber) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		s.detach(c)
	}()

	for {
		select {
		case data := <-c.send:
			if data == nil {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, ""),
					time.Now().Add(s.config.WriteTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.logger.Warn("write error", verrors.Attr(err))
				return
			}
			s.metrics.frameSent(data)

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout)); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func fatalFrame(err error) []byte {
	msg := protocol.NewError(err)
	msg.Fatal = true
	return msg.Encode().Encode()
}

func frameTypeOf(data []byte) string {
	return protocol.FrameType(data[0]).String()
}
