package fsswitch

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// EventFormat selects the wire encoding used for event subscriptions.
type EventFormat int

const (
	FormatPlain EventFormat = iota
	FormatJSON
	FormatXML
)

func (f EventFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "plain"
	}
}

// MessageKind classifies a parsed Frame by its Content-Type header.
type MessageKind int

const (
	MessageUnknown MessageKind = iota
	MessageAuthRequest
	MessageCommandReply
	MessageApiResponse
	MessageEvent
	MessageDisconnect
	MessageLogData
)

func classifyContentType(contentType string) MessageKind {
	switch contentType {
	case ContentTypeAuthRequest:
		return MessageAuthRequest
	case ContentTypeCommandReply:
		return MessageCommandReply
	case ContentTypeApiResponse:
		return MessageApiResponse
	case ContentTypeTextEventPlain, ContentTypeTextEventJson, ContentTypeTextEventXml:
		return MessageEvent
	case ContentTypeLogData:
		return MessageLogData
	case ContentTypeDisconnect:
		return MessageDisconnect
	default:
		return MessageUnknown
	}
}

// Frame is one fully-read ESL wire message: a header block plus an
// optional Content-Length-sized body.
type Frame struct {
	ContentType string
	Kind        MessageKind
	Headers     []EventHeader
	Body        []byte
	HasBody     bool
}

// Header returns the first value of name in the frame's header block.
func (f *Frame) Header(name string) (string, bool) {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// IsSuccess reports whether Reply-Text (if present) starts with "+OK".
func (f *Frame) IsSuccess() bool {
	if v, ok := f.Header(HeaderReplyText); ok {
		return strings.HasPrefix(v, "+OK")
	}
	return true
}

// FrameReader parses ESL frames off a buffered byte stream, blocking until
// a complete frame (or error) is available — the Go analogue of a single
// connection's read half.
//
// Header blocks are parsed by hand rather than via net/textproto's MIME
// reader: textproto.CanonicalMIMEHeaderKey lowercases everything but the
// first letter of each hyphen-delimited segment, which mangles the exact
// header names FreeSWITCH sends ("Unique-ID" becomes "Unique-Id",
// "Job-UUID" becomes "Job-Uuid") and breaks exact-name lookups like
// reader.go's Job-UUID based reply routing.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r (already buffered, or wrapped here if not).
func NewFrameReader(r io.Reader) *FrameReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, SocketBufSize)
	}
	return &FrameReader{r: br}
}

// readHeaderBlock reads "Name: value" lines up to (and consuming) the
// blank line that terminates a header block, preserving each name's exact
// case. headers accumulated so far are returned alongside any I/O error,
// so the caller can distinguish "closed before any header" (EOF) from "closed
// mid-block" (a protocol-level failure).
func readHeaderBlock(r *bufio.Reader) ([]EventHeader, error) {
	var headers []EventHeader
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return headers, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return headers, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, EventHeader{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
}

// ReadFrame reads and returns the next complete frame, blocking on I/O as
// needed. It returns a bare io.EOF when the peer closes the connection
// before any header line, and a wrapped IO *Error when it closes mid-frame.
func (fr *FrameReader) ReadFrame() (*Frame, error) {
	headers, err := readHeaderBlock(fr.r)
	if err != nil {
		if err == io.EOF && len(headers) == 0 {
			return nil, err
		}
		return nil, wrapIO(err)
	}

	f := &Frame{Headers: headers}
	f.ContentType, _ = f.Header(HeaderContentType)
	f.Kind = classifyContentType(f.ContentType)

	if lengthStr, ok := f.Header(HeaderContentLength); ok {
		length, perr := strconv.Atoi(strings.TrimSpace(lengthStr))
		if perr != nil {
			return nil, protocolError(fmt.Sprintf("invalid Content-Length: %q", lengthStr))
		}
		if length > MaxMessageSize {
			return nil, protocolError(fmt.Sprintf("message too large: Content-Length %d exceeds limit %d", length, MaxMessageSize))
		}
		if length > 0 {
			body := make([]byte, length)
			if _, err := io.ReadFull(fr.r, body); err != nil {
				return nil, wrapIO(err)
			}
			f.Body = body
			f.HasBody = true
		}
	}

	return f, nil
}

// DecodeEventPayload turns a Frame of Kind MessageEvent into an Event,
// dispatching on format. Plain events carry their data as a nested header
// block (plus optional body) inside the frame's body; the frame's own
// envelope headers are not copied into the Event. JSON events carry a JSON
// object body; XML events carry an <event> element holding
// <header name="X" value="Y"/> elements and an optional <body>.
func DecodeEventPayload(f *Frame, format EventFormat) (*Event, error) {
	switch format {
	case FormatJSON:
		return decodeJSONEvent(f)
	case FormatXML:
		return decodeXMLEvent(f)
	default:
		return decodePlainEvent(f)
	}
}

// decodePlainEvent parses a text/event-plain frame. FreeSWITCH wraps the
// event's own headers (and optional body) inside the outer frame's body
// as a second, nested header block; this mirrors the teacher's readOne,
// which reparses resp.Body as a fresh header block, but keeps header
// names exactly as sent (see readHeaderBlock).
func decodePlainEvent(f *Frame) (*Event, error) {
	e := NewEvent()
	if !f.HasBody {
		return e, nil
	}
	br := bufio.NewReader(strings.NewReader(string(f.Body)))
	headers, err := readHeaderBlock(br)
	if err != nil && err != io.EOF {
		return nil, protocolError("invalid event-plain body: " + err.Error())
	}
	for _, h := range headers {
		e.headers = append(e.headers, EventHeader{Name: h.Name, Value: decodeHeaderValue(h.Value)})
	}
	e.reindex()
	if lengthStr, ok := e.Header(HeaderContentLength); ok {
		length, perr := strconv.Atoi(strings.TrimSpace(lengthStr))
		if perr == nil && length > 0 {
			remaining, _ := io.ReadAll(br)
			if len(remaining) >= length {
				e.SetBody(remaining[:length])
			} else {
				e.SetBody(remaining)
			}
		}
	}
	return e, nil
}

func decodeHeaderValue(v string) string {
	if decoded, err := url.QueryUnescape(v); err == nil {
		return decoded
	}
	return v
}

func decodeJSONEvent(f *Frame) (*Event, error) {
	if !f.HasBody {
		return nil, protocolError("JSON event missing body")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(f.Body, &raw); err != nil {
		return nil, invalidEventFormat(err.Error())
	}
	e := NewEvent()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if k == "_body" {
			continue
		}
		switch v := raw[k].(type) {
		case string:
			e.SetHeader(k, v)
		default:
			b, _ := json.Marshal(v)
			e.SetHeader(k, string(b))
		}
	}
	if body, ok := raw["_body"].(string); ok {
		e.SetBody([]byte(body))
	}
	return e, nil
}

// xmlEventDoc mirrors the <event><header name="X" value="Y"/>...<body>...
// </body></event> wire grammar.
type xmlEventDoc struct {
	XMLName xml.Name       `xml:"event"`
	Headers []xmlEventAttr `xml:"header"`
	Body    *string        `xml:"body"`
}

type xmlEventAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func decodeXMLEvent(f *Frame) (*Event, error) {
	if !f.HasBody {
		return nil, protocolError("XML event missing body")
	}
	var doc xmlEventDoc
	if err := xml.Unmarshal(f.Body, &doc); err != nil {
		return nil, invalidEventFormat(err.Error())
	}
	e := NewEvent()
	for _, h := range doc.Headers {
		e.SetHeader(h.Name, h.Value)
	}
	if doc.Body != nil {
		e.SetBody([]byte(*doc.Body))
	}
	return e, nil
}

// ToJSON serializes e to the text/event-json wire format: a JSON object
// whose members are the event's headers, plus a "_body" member when a body
// is present. This is the inverse of decodeJSONEvent.
func (e *Event) ToJSON() (string, error) {
	obj := make(map[string]string, len(e.headers)+1)
	for _, h := range e.headers {
		obj[h.Name] = h.Value
	}
	if e.hasBody {
		obj["_body"] = string(e.body)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToXML serializes e to the text/event-xml wire format: an <event> element
// containing one <header name="X" value="Y"/> per header, plus an optional
// <body>...</body>. This is the inverse of decodeXMLEvent.
func (e *Event) ToXML() (string, error) {
	doc := xmlEventDoc{XMLName: xml.Name{Local: "event"}}
	for _, h := range e.headers {
		doc.Headers = append(doc.Headers, xmlEventAttr{Name: h.Name, Value: h.Value})
	}
	if e.hasBody {
		body := string(e.body)
		doc.Body = &body
	}
	b, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
