package fsswitch

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client is a clonable handle to one ESL connection: cheap to copy and
// safe to share across goroutines, since every mutable field is a
// pointer or channel guarded internally. Grounded on the teacher's
// EventSocket, split so the pending-call tables live behind a shared
// *correlator rather than being private fields a single struct owns
// exclusively (spec.md §4.5's "two halves of a socket with shared
// correlation state").
type Client struct {
	conn       net.Conn
	writeMu    *sync.Mutex
	correlator *correlator
	stream     *EventStream
	status     *statusWatcher
	format     *atomic.Int32
	cmdTimeout *atomic.Int64
	liveness   *atomic.Int64
	closing    *atomic.Bool
	logger     zerolog.Logger
}

// Option configures a Client at connect time.
type Option func(*Client)

// WithLogger attaches logger to the Client and its reader task; the
// default is zerolog.Nop() (silent).
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func newClient(conn net.Conn, opts []Option) (*Client, *FrameReader) {
	c := &Client{
		conn:       conn,
		writeMu:    &sync.Mutex{},
		correlator: newCorrelator(),
		status:     newStatusWatcher(),
		format:     &atomic.Int32{},
		cmdTimeout: &atomic.Int64{},
		liveness:   &atomic.Int64{},
		closing:    &atomic.Bool{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.format.Store(int32(FormatPlain))
	c.cmdTimeout.Store(int64(DefaultCommandTimeout))
	c.liveness.Store(int64(DefaultLivenessTimeout))
	c.stream = newEventStream(MaxEventQueueSize, c.status)
	return c, NewFrameReader(conn)
}

func (c *Client) startReader(ctx context.Context, fr *FrameReader, overflow OverflowPolicy) {
	c.status.set(StatusConnected, DisconnectReason{})
	task := &readerTask{
		conn:            c.conn,
		fr:              fr,
		format:          c.format,
		overflow:        overflow,
		livenessTimeout: c.liveness,
		correlator:      c.correlator,
		stream:          c.stream,
		status:          c.status,
		closing:         c.closing,
		logger:          c.logger,
	}
	go task.run(ctx)
}

// Connect dials address (inbound mode) and completes the single-password
// "auth/request" handshake.
func Connect(ctx context.Context, address, password string, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, wrapIO(err)
	}
	c, fr := newClient(conn, opts)
	resp, err := performAuth(fr, conn, password)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !resp.IsSuccess() {
		conn.Close()
		reply, _ := resp.ReplyText()
		return nil, authFailed(reply)
	}
	c.startReader(ctx, fr, OverflowDropOldest)
	return c, nil
}

// ConnectUser dials address (inbound mode) and completes the
// username/password "userauth" handshake used by event socket ACLs that
// require a named user.
func ConnectUser(ctx context.Context, address, user, password string, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, wrapIO(err)
	}
	c, fr := newClient(conn, opts)
	resp, err := performUserAuth(fr, conn, user, password)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !resp.IsSuccess() {
		conn.Close()
		reply, _ := resp.ReplyText()
		return nil, authFailed(reply)
	}
	c.startReader(ctx, fr, OverflowDropOldest)
	return c, nil
}

// ConnectSession wraps an already-accepted net.Conn as an outbound (mod_event_socket
// "socket" application) session: it issues "connect" and returns both the
// live Client and the channel-data Event FreeSWITCH embeds in the reply.
func ConnectSession(ctx context.Context, conn net.Conn, opts ...Option) (*Client, *Event, error) {
	c, fr := newClient(conn, opts)
	channelData, err := performOutboundConnect(fr, conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	c.startReader(ctx, fr, OverflowDropOldest)
	return c, channelData, nil
}

// OutboundHandler is invoked once per accepted outbound connection, after
// the "connect" handshake completes, with the session's channel-data
// event.
type OutboundHandler func(ctx context.Context, client *Client, channelData *Event)

// AcceptOutbound listens on addr and runs handler for every connection
// FreeSWITCH's "socket" dialplan application opens to it, blocking until
// the listener errors. Grounded on the teacher's OutboundServer, which
// this generalizes from a bare net.Conn callback into a full
// ConnectSession handshake per connection.
func AcceptOutbound(ctx context.Context, addr string, handler OutboundHandler, opts ...Option) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return wrapIO(err)
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			return wrapIO(err)
		}
		go func(conn net.Conn) {
			client, channelData, err := ConnectSession(ctx, conn, opts...)
			if err != nil {
				conn.Close()
				return
			}
			handler(ctx, client, channelData)
		}(conn)
	}
}

// IsConnected reports whether the connection's reader task is still
// running.
func (c *Client) IsConnected() bool {
	status, _ := c.status.get()
	return status == StatusConnected
}

// Status returns the connection's current lifecycle status and, when
// disconnected, the reason.
func (c *Client) Status() (ConnectionStatus, DisconnectReason) {
	return c.status.get()
}

// Events returns the stream a caller drains for published events.
func (c *Client) Events() *EventStream { return c.stream }

// SetCommandTimeout changes how long subsequent command operations wait
// for their reply before returning a Timeout error.
func (c *Client) SetCommandTimeout(d time.Duration) { c.cmdTimeout.Store(int64(d)) }

// SetLivenessTimeout changes how long the reader task will wait after the
// last complete inbound frame before declaring the connection
// HeartbeatExpired. Bytes of a frame still being received do not reset
// the timer.
func (c *Client) SetLivenessTimeout(d time.Duration) { c.liveness.Store(int64(d)) }

// NewUUID generates a fresh UUID suitable for an origination_uuid channel
// variable or other client-side call correlation.
func (c *Client) NewUUID() string { return uuid.NewString() }

func (c *Client) commandTimeout() time.Duration { return time.Duration(c.cmdTimeout.Load()) }

// write sends wire under the writer mutex, returning a wrapped IO error
// on failure. The mutex is only ever held across the write itself, never
// across awaiting a reply (spec.md §5's cancellation-safety invariant).
func (c *Client) write(wire string) error {
	c.writeMu.Lock()
	_, err := io.WriteString(c.conn, wire)
	c.writeMu.Unlock()
	if err != nil {
		return wrapIO(err)
	}
	return nil
}

// sendAwait pushes a slot onto q and writes wire, both under the writer
// mutex so slot order matches wire order, then waits for the matching
// reply or the command timeout, whichever comes first. A timeout does not
// remove the slot: a late reply is received and discarded by the orphaned
// channel, preserving FIFO order for everything queued behind it.
func (c *Client) sendAwait(q *callQueue, wire string) (*Response, error) {
	c.writeMu.Lock()
	slot := q.push()
	_, err := io.WriteString(c.conn, wire)
	c.writeMu.Unlock()
	if err != nil {
		return nil, wrapIO(err)
	}
	timeout := c.commandTimeout()
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case result := <-slot:
		return result.resp, result.err
	case <-timeoutCh:
		return nil, timeoutError(timeout)
	}
}

// Api runs a synchronous "api" command, blocking until the result
// arrives.
func (c *Client) Api(command string) (*Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	return c.sendAwait(&c.correlator.api, encodeAPI(command))
}

// BgApi runs an "api" command in the background; the immediate reply
// carries the Job-UUID the result event (BACKGROUND_JOB) will later
// reference. It does not wait for that event.
func (c *Client) BgApi(command string) (*Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	return c.sendAwait(&c.correlator.bgapi, encodeBgAPI(command))
}

// Send issues a bare command string (e.g. "myevents json") and waits on
// the default CommandReply FIFO.
func (c *Client) Send(command string) (*Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	return c.sendAwait(&c.correlator.cmd, formatSimpleCommand(command))
}

func (c *Client) sendCommand(wire string) (*Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	return c.sendAwait(&c.correlator.cmd, wire)
}

// SubscribeEvents issues "event <format> <events...>" and switches the
// reader's decoder to format for subsequently received event frames.
func (c *Client) SubscribeEvents(format EventFormat, events ...string) (*Response, error) {
	c.format.Store(int32(format))
	joined := ""
	for i, e := range events {
		if i > 0 {
			joined += " "
		}
		joined += e
	}
	return c.sendCommand(encodeEvents(format, joined))
}

// NixEvent unsubscribes from the given event names.
func (c *Client) NixEvent(events ...string) (*Response, error) {
	joined := ""
	for i, e := range events {
		if i > 0 {
			joined += " "
		}
		joined += e
	}
	return c.sendCommand(encodeNixEvent(joined))
}

// NoEvents cancels all event subscriptions.
func (c *Client) NoEvents() (*Response, error) { return c.sendCommand(encodeNoEvents()) }

// Filter adds a value filter restricting which events the server sends.
func (c *Client) Filter(header, value string) (*Response, error) {
	return c.sendCommand(encodeFilter(header, value))
}

// FilterDelete removes a previously added filter; pass header "all" to
// clear every filter.
func (c *Client) FilterDelete(header, value string) (*Response, error) {
	return c.sendCommand(encodeFilterDelete(header, value, value != ""))
}

// MyEvents restricts delivery to events for a single call leg's uuid.
func (c *Client) MyEvents(format EventFormat, callUUID string) (*Response, error) {
	c.format.Store(int32(format))
	return c.sendCommand(encodeMyEvents(format, callUUID, callUUID != ""))
}

// Linger keeps the connection open for timeoutSeconds after the call
// associated with it hangs up (outbound mode). timeoutSeconds <= 0 omits
// the argument, using the server default.
func (c *Client) Linger(timeoutSeconds int) (*Response, error) {
	return c.sendCommand(encodeLinger(timeoutSeconds, timeoutSeconds > 0))
}

// NoLinger disables a previously requested Linger.
func (c *Client) NoLinger() (*Response, error) { return c.sendCommand(encodeNoLinger()) }

// Resume resumes dialplan execution after a pause induced by a prior
// command (outbound mode).
func (c *Client) Resume() (*Response, error) { return c.sendCommand(encodeResume()) }

// DivertEvents turns diversion of dialplan-bound events to this socket on
// or off (outbound mode).
func (c *Client) DivertEvents(on bool) (*Response, error) {
	return c.sendCommand(encodeDivertEvents(on))
}

// Log sets the log level this connection receives log/data frames at.
func (c *Client) Log(level string) (*Response, error) { return c.sendCommand(encodeLog(level)) }

// NoLog disables log/data delivery.
func (c *Client) NoLog() (*Response, error) { return c.sendCommand(encodeNoLog()) }

// GetVar reads a global FreeSWITCH variable.
func (c *Client) GetVar(name string) (*Response, error) {
	return c.sendCommand(encodeGetVar(name))
}

// SendEvent injects a custom event into FreeSWITCH's event system.
func (c *Client) SendEvent(e *Event) (*Response, error) {
	return c.sendCommand(encodeSendEvent(e))
}

// SendMsg issues a raw "sendmsg" with the given headers and optional
// body, addressed to channelUUID when non-empty (required in inbound
// mode, implicit in outbound mode).
func (c *Client) SendMsg(channelUUID string, headers []EventHeader, body string, hasBody bool) (*Response, error) {
	return c.sendCommand(encodeSendMsg(channelUUID, channelUUID != "", headers, body, hasBody))
}

// Execute runs a dialplan application (AppCommand, see dptools.go) on the
// channel identified by channelUUID (outbound mode may pass "").
func (c *Client) Execute(app AppCommand, channelUUID string) (*Response, error) {
	return c.sendCommand(encodeExecute(app.App, app.Args, app.HasArgs, channelUUID, channelUUID != ""))
}

// Exit asks FreeSWITCH to close the connection gracefully.
func (c *Client) Exit() (*Response, error) { return c.sendCommand(encodeExit()) }

// NoOp sends a protocol no-op, useful as a liveness probe.
func (c *Client) NoOp() (*Response, error) { return c.sendCommand(encodeNoOp()) }

// Originate starts a new call per o. If o.Endpoint carries no
// origination_uuid channel variable, one is generated so the caller can
// correlate the resulting CHANNEL_CREATE event and later uuid_* commands
// without a round trip through the api response body. o.Dialplan's
// ApplicationList must render under that dialplan; otherwise Originate
// returns the TooManyApplications OriginateError without sending anything.
func (c *Client) Originate(o Originate) (*Response, error) {
	o.Endpoint = withOriginationUUID(o.Endpoint, c.NewUUID())
	wire, err := o.Format()
	if err != nil {
		return nil, err
	}
	return c.Api(wire)
}

// Disconnect sends "exit" so FreeSWITCH tears the session down cleanly,
// then closes the socket and waits for the reader task to observe the
// close, so the connection's final status is published as
// Disconnected(Graceful) rather than an ad hoc I/O error (spec.md §4.5).
func (c *Client) Disconnect() error {
	c.closing.Store(true)
	if c.IsConnected() {
		_ = c.write(encodeExit())
	}
	if err := c.conn.Close(); err != nil {
		return wrapIO(err)
	}
	c.waitDisconnected(DefaultCommandTimeout)
	return nil
}

// waitDisconnected blocks until the reader task publishes Disconnected or
// timeout elapses, whichever comes first.
func (c *Client) waitDisconnected(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if status, _ := c.status.get(); status == StatusDisconnected {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}
