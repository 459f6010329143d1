package feed

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
)

// runStream connects, subscribes and reads until the context ends or the reconnect budget
// is spent. A connection that delivered at least one valid frame restores the full budget;
// one that fails before delivering anything consumes an attempt.
func (h *Handle) runStream(ctx context.Context) {
	h.bootstrap(ctx)

	for dialed := false; ; dialed = true {
		if ctx.Err() != nil {
			return
		}
		if h.Attempts() >= h.c.opts.MaxAttempts {
			h.logger.Warn("reconnect budget exhausted", "attempts", h.Attempts())
			h.setHealth(model.HealthDisconnected)
			close(h.disconnected)
			return
		}
		if dialed && !sleepCtx(ctx, h.c.opts.ReconnectDelay) {
			return
		}
		h.attempts.Add(1)

		delivered, err := h.streamOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("stream connection failed", "attempt", h.Attempts(), "max_attempts", h.c.opts.MaxAttempts, "delivered", delivered, "kind", string(openf1.KindOf(err)), "error", err)
		if delivered {
			h.attempts.Store(0)
		}
	}
}

// streamOnce runs one connection. delivered reports whether any valid frame was dispatched.
func (h *Handle) streamOnce(ctx context.Context) (delivered bool, err error) {
	url := h.c.opts.StreamURL
	conn, _, err := h.c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, &openf1.Error{Kind: openf1.KindNetwork, Op: "dial stream", Err: errors.Wrap(err, url)}
	}
	h.setConn(conn)
	defer h.closeConn()

	for _, topic := range openf1.Topics {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(openf1.NewSubscribe(topic, h.Session.Key)); err != nil {
			return false, &openf1.Error{Kind: openf1.KindNetwork, Op: "subscribe " + topic, Err: err}
		}
	}
	h.logger.Info("stream connected", "url", url, "attempt", h.Attempts())
	h.setHealth(model.HealthLive)

	done := make(chan struct{})
	defer close(done)
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	// reads block without a deadline: a timed out read leaves the connection unusable
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- msg:
			case <-done:
				return
			}
		}
	}()

	timer := time.NewTimer(h.c.opts.ReceiveTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		case err := <-readErr:
			return delivered, &openf1.Error{Kind: openf1.KindNetwork, Op: "read stream", Err: err}
		case msg := <-frames:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(h.c.opts.ReceiveTimeout)
			valid, ok := h.handleFrame(ctx, msg)
			delivered = delivered || valid
			if !ok {
				return delivered, ctx.Err()
			}
		case <-timer.C:
			h.logger.Debug("no frame within receive timeout, pinging", "timeout", h.c.opts.ReceiveTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return delivered, &openf1.Error{Kind: openf1.KindNetwork, Op: "ping", Err: err}
			}
			timer.Reset(h.c.opts.ReceiveTimeout)
		}
	}
}

// handleFrame decodes and enqueues one frame. Bad frames are dropped. valid reports whether
// the frame decoded on a known topic; ok is false only when the context ended while
// enqueueing.
func (h *Handle) handleFrame(ctx context.Context, msg []byte) (valid, ok bool) {
	frame, err := openf1.DecodeFrame(msg)
	if err != nil {
		h.logger.Warn("dropping frame", "kind", string(openf1.KindOf(err)), "error", err)
		return false, true
	}
	decode, found := dispatch[frame.Type]
	if !found {
		h.logger.Debug("dropping frame with unknown topic", "topic", frame.Type)
		return false, true
	}
	events, err := decode(frame.Data)
	if err != nil {
		h.logger.Warn("dropping frame", "topic", frame.Type, "kind", string(openf1.KindOf(err)), "error", err)
		return false, true
	}
	h.logger.Debug("frame", "topic", frame.Type, "events", len(events))
	return true, h.enqueue(ctx, events)
}
