package fsswitch

import (
	"fmt"
	"strings"
)

// commandBuilder assembles a command's wire form: a command line,
// header lines, and an optional Content-Length-framed body.
type commandBuilder struct {
	command string
	headers []EventHeader
	body    string
	hasBody bool
}

func newCommandBuilder(command string) *commandBuilder {
	return &commandBuilder{command: command}
}

func (b *commandBuilder) header(name, value string) *commandBuilder {
	b.headers = append(b.headers, EventHeader{Name: name, Value: value})
	return b
}

func (b *commandBuilder) setBody(body string) *commandBuilder {
	b.body = body
	b.hasBody = true
	return b
}

func (b *commandBuilder) build() string {
	var out strings.Builder
	out.WriteString(b.command)
	out.WriteString(LineTerminator)
	for _, h := range b.headers {
		fmt.Fprintf(&out, "%s: %s%s", h.Name, h.Value, LineTerminator)
	}
	if b.hasBody {
		fmt.Fprintf(&out, "Content-Length: %d%s", len(b.body), LineTerminator)
		out.WriteString(LineTerminator)
		out.WriteString(b.body)
	} else {
		out.WriteString(LineTerminator)
	}
	return out.String()
}

func formatSimpleCommand(cmd string, args ...string) string {
	var out strings.Builder
	out.WriteString(cmd)
	for _, a := range args {
		out.WriteByte(' ')
		out.WriteString(a)
	}
	out.WriteString(HeaderTerminator)
	return out.String()
}

// Response wraps a command reply's headers and body with success
// classification and typed accessors.
type Response struct {
	headers []EventHeader
	index   map[string][]string
	body    string
	hasBody bool
	success bool
}

func newResponse(headers []EventHeader, body string, hasBody bool) *Response {
	index := make(map[string][]string, len(headers))
	for _, h := range headers {
		index[h.Name] = append(index[h.Name], h.Value)
	}
	replyText := ""
	if vs := index[HeaderReplyText]; len(vs) > 0 {
		replyText = vs[0]
	}
	return &Response{
		headers: headers,
		index:   index,
		body:    body,
		hasBody: hasBody,
		success: strings.HasPrefix(replyText, "+OK") || replyText == "",
	}
}

// IsSuccess reports whether the command succeeded.
func (r *Response) IsSuccess() bool { return r.success }

// Body returns the response body, if any.
func (r *Response) Body() (string, bool) { return r.body, r.hasBody }

// BodyString returns the response body, or "" if absent.
func (r *Response) BodyString() string { return r.body }

// Header returns the first value of name.
func (r *Response) Header(name string) (string, bool) {
	vs, ok := r.index[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Headers returns the response's raw header list.
func (r *Response) Headers() []EventHeader { return append([]EventHeader(nil), r.headers...) }

// ReplyText returns the Reply-Text header, if present.
func (r *Response) ReplyText() (string, bool) { return r.Header(HeaderReplyText) }

// JobUUID returns the Job-UUID header of a bgapi response.
func (r *Response) JobUUID() (string, bool) { return r.Header(HeaderJobUUID) }

// IntoResult returns (r, nil) on success, or (nil, *Error) wrapping the
// reply text on failure.
func (r *Response) IntoResult() (*Response, error) {
	if r.success {
		return r, nil
	}
	reply, ok := r.ReplyText()
	if !ok {
		reply = "command failed"
	}
	return nil, commandFailed(reply)
}

// --- typed command encoders, grounded on EslCommand::to_wire_format ---

func encodeAuth(password string) string {
	return formatSimpleCommand("auth", password)
}

func encodeUserAuth(user, password string) string {
	return formatSimpleCommand("userauth", fmt.Sprintf("%s:%s", user, password))
}

func encodeAPI(command string) string {
	return formatSimpleCommand("api", command)
}

func encodeBgAPI(command string) string {
	return formatSimpleCommand("bgapi", command)
}

func encodeEvents(format EventFormat, events string) string {
	return formatSimpleCommand("event", format.String(), events)
}

func encodeFilter(header, value string) string {
	return formatSimpleCommand("filter", header, value)
}

func encodeFilterDelete(header string, value string, hasValue bool) string {
	if header == "all" {
		return formatSimpleCommand("filter", "delete", "all")
	}
	if hasValue {
		return formatSimpleCommand("filter", "delete", header, value)
	}
	return formatSimpleCommand("filter", "delete", header)
}

func encodeSendMsg(uuid string, hasUUID bool, headers []EventHeader, body string, hasBody bool) string {
	cmd := "sendmsg"
	if hasUUID {
		cmd = fmt.Sprintf("sendmsg %s", uuid)
	}
	b := newCommandBuilder(cmd)
	for _, h := range headers {
		b.header(h.Name, h.Value)
	}
	if hasBody {
		b.setBody(body)
	}
	return b.build()
}

func encodeExecute(app string, args string, hasArgs bool, uuid string, hasUUID bool) string {
	headers := []EventHeader{
		{Name: "call-command", Value: "execute"},
		{Name: "execute-app-name", Value: app},
	}
	if hasArgs {
		headers = append(headers, EventHeader{Name: "execute-app-arg", Value: args})
	}
	return encodeSendMsg(uuid, hasUUID, headers, "", false)
}

func encodeExit() string { return formatSimpleCommand("exit") }

func encodeLog(level string) string { return formatSimpleCommand("log", level) }

func encodeNoLog() string { return formatSimpleCommand("nolog") }

func encodeNoOp() string { return formatSimpleCommand("noop") }

func encodeSendEvent(e *Event) string {
	name, ok := e.Header("Event-Name")
	if !ok {
		name = "CUSTOM"
	}
	b := newCommandBuilder(fmt.Sprintf("sendevent %s", name))
	for _, h := range e.Headers() {
		b.header(h.Name, h.Value)
	}
	if body, ok := e.Body(); ok {
		b.setBody(string(body))
	}
	return b.build()
}

func encodeMyEvents(format EventFormat, uuid string, hasUUID bool) string {
	if hasUUID {
		return formatSimpleCommand("myevents", uuid, format.String())
	}
	return formatSimpleCommand("myevents", format.String())
}

func encodeLinger(timeoutSeconds int, hasTimeout bool) string {
	if hasTimeout {
		return formatSimpleCommand("linger", fmt.Sprintf("%d", timeoutSeconds))
	}
	return formatSimpleCommand("linger")
}

func encodeNoLinger() string { return formatSimpleCommand("nolinger") }

func encodeResume() string { return formatSimpleCommand("resume") }

func encodeNixEvent(events string) string { return formatSimpleCommand("nixevent", events) }

func encodeNoEvents() string { return formatSimpleCommand("noevents") }

func encodeDivertEvents(on bool) string {
	if on {
		return formatSimpleCommand("divert_events", "on")
	}
	return formatSimpleCommand("divert_events", "off")
}

func encodeGetVar(name string) string { return formatSimpleCommand("getvar", name) }

func encodeConnect() string { return formatSimpleCommand("connect") }
