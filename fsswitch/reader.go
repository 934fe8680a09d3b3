package fsswitch

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// pendingResult is delivered to a pendingCall's channel once its reply
// arrives, a timeout occurs, or the connection dies.
type pendingResult struct {
	resp *Response
	err  error
}

// callQueue is a FIFO of one-shot reply slots for a single reply class
// (the default CommandReply class, the api class, or the bgapi class).
// Senders push a slot under the writer mutex before writing their
// command; the reader task pops the oldest slot when a matching reply
// frame arrives. This is the "FIFO of pending calls per reply class"
// spec.md requires.
type callQueue struct {
	mu    sync.Mutex
	slots []chan pendingResult
}

func (q *callQueue) push() chan pendingResult {
	ch := make(chan pendingResult, 1)
	q.mu.Lock()
	q.slots = append(q.slots, ch)
	q.mu.Unlock()
	return ch
}

func (q *callQueue) pop() (chan pendingResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.slots) == 0 {
		return nil, false
	}
	ch := q.slots[0]
	q.slots = q.slots[1:]
	return ch, true
}

func (q *callQueue) drain(err error) {
	q.mu.Lock()
	slots := q.slots
	q.slots = nil
	q.mu.Unlock()
	for _, ch := range slots {
		ch <- pendingResult{err: err}
	}
}

// correlator is the shared, reference-counted routing table of pending
// calls: the reader task pops from it, the clonable Client handle pushes
// to it under the writer mutex.
type correlator struct {
	cmd   callQueue // default CommandReply FIFO
	api   callQueue // synchronous "api" replies
	bgapi callQueue // "bgapi" acks (command/reply frames carrying Job-UUID)
}

func newCorrelator() *correlator { return &correlator{} }

func (c *correlator) drainAll(err error) {
	c.cmd.drain(err)
	c.api.drain(err)
	c.bgapi.drain(err)
}

// readerTask owns everything about the read half of one connection: the
// FrameReader, the correlation tables, the event stream, and the status
// watcher it publishes transitions to. Grounded on the teacher's
// EventSocket.readLoop/readOne/dispatchEvent, restructured so the reader
// never touches the write half (that lives behind Client's mutex).
type readerTask struct {
	conn            net.Conn
	fr              *FrameReader
	format          *atomic.Int32 // current EventFormat, mutable via Client.SubscribeEvents
	overflow        OverflowPolicy
	livenessTimeout *atomic.Int64 // nanoseconds, mutable via Client.SetLivenessTimeout
	correlator      *correlator
	stream          *EventStream
	status          *statusWatcher
	closing         *atomic.Bool // set by Client.Disconnect before it closes conn
	logger          zerolog.Logger
}

// run blocks until the connection ends, publishing the final
// DisconnectReason to status and draining every pending call before
// returning. It supervises two goroutines under an errgroup: the blocking
// read loop, and a liveness-timer loop that forces a read deadline if no
// complete frame arrives within livenessTimeout (the timer is reset per
// frame, not per byte) — the Go analogue of the original's
// tokio::select! race between "next frame" and "heartbeat timer".
func (t *readerTask) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var lastByte atomic.Int64
	lastByte.Store(time.Now().UnixNano())
	var expired atomic.Bool

	g.Go(func() error {
		defer cancel()
		return t.livenessLoop(gctx, &lastByte, &expired)
	})
	g.Go(func() error {
		defer cancel()
		return t.readLoop(&lastByte, &expired)
	})

	if err := g.Wait(); err != nil {
		t.logger.Debug().Err(err).Msg("reader task exited")
	}
}

// livenessCheckInterval is how often the liveness loop samples the
// configured timeout against the time of the last inbound byte. It is a
// small fixed interval rather than a fraction of the current timeout so
// that SetLivenessTimeout takes effect promptly even when called well
// after the reader task started (spec scenario: shrinking the timeout
// mid-connection must be observed within roughly this interval, not the
// original timeout's own cadence).
const livenessCheckInterval = 25 * time.Millisecond

func (t *readerTask) livenessLoop(ctx context.Context, lastByte *atomic.Int64, expired *atomic.Bool) error {
	ticker := time.NewTicker(livenessCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			timeout := time.Duration(t.livenessTimeout.Load())
			if timeout <= 0 {
				continue
			}
			elapsed := time.Since(time.Unix(0, lastByte.Load()))
			if elapsed >= timeout {
				expired.Store(true)
				t.conn.SetReadDeadline(time.Now())
				return nil
			}
		}
	}
}

func (t *readerTask) readLoop(lastByte *atomic.Int64, expired *atomic.Bool) error {
	for {
		frame, err := t.fr.ReadFrame()
		if err != nil {
			reason, finalErr := classifyReadError(err, expired, t.closing)
			t.finish(reason)
			return finalErr
		}
		lastByte.Store(time.Now().UnixNano())

		if frame.Kind == MessageDisconnect {
			t.finish(gracefulDisconnect())
			return nil
		}

		if err := t.dispatch(frame); err != nil {
			t.finish(protocolErrorDisconnect(err))
			return err
		}
	}
}

func (t *readerTask) finish(reason DisconnectReason) {
	t.status.set(StatusDisconnected, reason)
	t.correlator.drainAll(ErrNotConnected)
	t.stream.close()
}

func (t *readerTask) dispatch(f *Frame) error {
	switch f.Kind {
	case MessageCommandReply:
		resp := responseFromFrame(f)
		var ch chan pendingResult
		var ok bool
		if _, hasJobUUID := f.Header(HeaderJobUUID); hasJobUUID {
			ch, ok = t.correlator.bgapi.pop()
		} else {
			ch, ok = t.correlator.cmd.pop()
		}
		if ok {
			ch <- pendingResult{resp: resp}
		}
	case MessageApiResponse:
		resp := responseFromFrame(f)
		if ch, ok := t.correlator.api.pop(); ok {
			ch <- pendingResult{resp: resp}
		}
	case MessageEvent:
		ev, err := DecodeEventPayload(f, EventFormat(t.format.Load()))
		if err != nil {
			return err
		}
		return t.stream.offer(ev, t.overflow)
	case MessageLogData:
		t.logger.Debug().Bytes("body", f.Body).Msg("log/data")
	case MessageAuthRequest:
		return unexpectedReply("auth/request after handshake")
	default:
		t.logger.Warn().Str("content_type", f.ContentType).Msg("unrecognized content type")
	}
	return nil
}

func responseFromFrame(f *Frame) *Response {
	return newResponse(f.Headers, string(f.Body), f.HasBody)
}

func classifyReadError(err error, expired *atomic.Bool, closing *atomic.Bool) (DisconnectReason, error) {
	if closing.Load() {
		return gracefulDisconnect(), nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return eofDisconnect(), nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && expired.Load() {
		return heartbeatExpiredDisconnect(), heartbeatExpired()
	}
	var fsErr *Error
	if errors.As(err, &fsErr) && fsErr.Kind == ErrKindProtocolError {
		return protocolErrorDisconnect(err), err
	}
	return ioDisconnect(err), err
}

// --- pre-task handshake helpers: synchronous frame exchanges that happen
// before the reader task takes ownership of the connection. ---

func readAuthRequest(fr *FrameReader) (*Frame, error) {
	f, err := fr.ReadFrame()
	if err != nil {
		return nil, wrapIO(err)
	}
	if f.Kind != MessageAuthRequest {
		return nil, unexpectedReply("expected auth/request, got " + f.ContentType)
	}
	return f, nil
}

func sendAndAwaitReply(fr *FrameReader, conn net.Conn, wire string) (*Response, error) {
	if _, err := io.WriteString(conn, wire); err != nil {
		return nil, wrapIO(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		return nil, wrapIO(err)
	}
	if f.Kind != MessageCommandReply {
		return nil, unexpectedReply("expected command/reply, got " + f.ContentType)
	}
	return responseFromFrame(f), nil
}

func performAuth(fr *FrameReader, conn net.Conn, password string) (*Response, error) {
	if _, err := readAuthRequest(fr); err != nil {
		return nil, err
	}
	return sendAndAwaitReply(fr, conn, encodeAuth(password))
}

func performUserAuth(fr *FrameReader, conn net.Conn, user, password string) (*Response, error) {
	if _, err := readAuthRequest(fr); err != nil {
		return nil, err
	}
	return sendAndAwaitReply(fr, conn, encodeUserAuth(user, password))
}

// performOutboundConnect issues "connect" on a freshly accepted outbound
// socket and turns the reply's headers into the channel-data Event
// FreeSWITCH embeds in it.
func performOutboundConnect(fr *FrameReader, conn net.Conn) (*Event, error) {
	resp, err := sendAndAwaitReply(fr, conn, encodeConnect())
	if err != nil {
		return nil, err
	}
	ev := NewEvent()
	for _, h := range resp.Headers() {
		ev.SetHeader(h.Name, h.Value)
	}
	if body, ok := resp.Body(); ok {
		ev.SetBody([]byte(body))
	}
	return ev, nil
}
