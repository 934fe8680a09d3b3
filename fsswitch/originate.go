package fsswitch

import (
	"fmt"
	"strconv"
	"strings"
)

// OriginateErrorKind classifies OriginateError.
type OriginateErrorKind int

const (
	OriginateErrUnclosedQuote OriginateErrorKind = iota
	OriginateErrTooManyApplications
	OriginateErrParseError
)

// OriginateError reports a failure building or parsing an originate
// command string.
type OriginateError struct {
	Kind    OriginateErrorKind
	Message string
}

func (e *OriginateError) Error() string {
	switch e.Kind {
	case OriginateErrUnclosedQuote:
		return fmt.Sprintf("unclosed quote: %s", e.Message)
	case OriginateErrTooManyApplications:
		return "XML dialplan supports only one application"
	default:
		return e.Message
	}
}

// DialplanType selects how an ApplicationList renders: as a single XML
// application ("&app(args)") or as one or more inline applications
// ("app1:args1,app2:args2").
type DialplanType int

const (
	DialplanInline DialplanType = iota
	DialplanXML
)

func (d DialplanType) String() string {
	if d == DialplanXML {
		return "XML"
	}
	return "inline"
}

// ParseDialplanType parses the exact-case "inline" or "XML" token that
// trails an originate command.
func ParseDialplanType(s string) (DialplanType, error) {
	switch s {
	case "inline":
		return DialplanInline, nil
	case "XML":
		return DialplanXML, nil
	default:
		return 0, &OriginateError{Kind: OriginateErrParseError, Message: "invalid dialplan: " + s}
	}
}

// VariablesType selects the bracket pair a Variables block is wrapped in.
type VariablesType int

const (
	VariablesDefault VariablesType = iota
	VariablesEnterprise
	VariablesChannel
)

func (t VariablesType) delimiters() (open, close byte) {
	switch t {
	case VariablesEnterprise:
		return '<', '>'
	case VariablesChannel:
		return '[', ']'
	default:
		return '{', '}'
	}
}

// VariablePair is one key/value entry of a Variables block.
type VariablePair struct {
	Key   string
	Value string
}

// Variables is an originate channel-variable block: {key=val,key2=val2},
// <key=val,...>, or [key=val,...], depending on Type.
type Variables struct {
	Type  VariablesType
	Pairs []VariablePair
}

// NewVariables creates an empty Variables block of the given type.
func NewVariables(t VariablesType) Variables {
	return Variables{Type: t}
}

// Set appends a key/value pair.
func (v *Variables) Set(key, value string) {
	v.Pairs = append(v.Pairs, VariablePair{Key: key, Value: value})
}

// IsEmpty reports whether the block has no pairs.
func (v Variables) IsEmpty() bool { return len(v.Pairs) == 0 }

// Has reports whether key is already present in the block.
func (v Variables) Has(key string) bool {
	for _, p := range v.Pairs {
		if p.Key == key {
			return true
		}
	}
	return false
}

func escapeVariableValue(v string) string {
	hasSpace := strings.ContainsAny(v, " \t\n\r")
	escaped := strings.ReplaceAll(v, "'", "\\'")
	escaped = strings.ReplaceAll(escaped, ",", "\\,")
	if hasSpace {
		escaped = "'" + escaped + "'"
	}
	return escaped
}

func unescapeVariableValue(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = v[1 : len(v)-1]
	}
	v = strings.ReplaceAll(v, "\\,", ",")
	v = strings.ReplaceAll(v, "\\'", "'")
	return v
}

// String renders the block to its wire form, e.g.
// "{origination_caller_id_number=9005551212}".
func (v Variables) String() string {
	open, close := v.Type.delimiters()
	parts := make([]string, len(v.Pairs))
	for i, p := range v.Pairs {
		parts[i] = p.Key + "=" + escapeVariableValue(p.Value)
	}
	return string(open) + strings.Join(parts, ",") + string(close)
}

// splitUnescaped splits s on sep, ignoring sep occurrences inside
// single-quoted spans or immediately preceded by a backslash.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == sep || s[i+1] == '\'') {
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '\'' {
			inQuote = !inQuote
			cur.WriteByte(c)
			i++
			continue
		}
		if c == sep && !inQuote {
			parts = append(parts, cur.String())
			cur.Reset()
			i++
			continue
		}
		cur.WriteByte(c)
		i++
	}
	parts = append(parts, cur.String())
	return parts
}

func findMatchingClose(s string, closeC byte) int {
	openC := s[0]
	depth := 0
	inQuote := false
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '\'' && !(i > 0 && s[i-1] == '\\') {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if c == openC {
			depth++
			continue
		}
		if c == closeC {
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// ParseVariables parses a leading Variables block off the front of s, if
// present, and returns the remainder of s after the closing delimiter. If
// s does not begin with '{', '<', or '[', it returns an empty Variables
// and s unchanged.
func ParseVariables(s string) (Variables, string, error) {
	if s == "" {
		return Variables{}, s, nil
	}
	var t VariablesType
	var closeC byte
	switch s[0] {
	case '{':
		t, closeC = VariablesDefault, '}'
	case '<':
		t, closeC = VariablesEnterprise, '>'
	case '[':
		t, closeC = VariablesChannel, ']'
	default:
		return Variables{}, s, nil
	}

	idx := findMatchingClose(s, closeC)
	if idx < 0 {
		return Variables{}, s, &OriginateError{Kind: OriginateErrParseError, Message: "unclosed variables block"}
	}
	inner := s[1:idx]
	rest := s[idx+1:]

	var vars Variables
	vars.Type = t
	if inner != "" {
		for _, pair := range splitUnescaped(inner, ',') {
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return Variables{}, s, &OriginateError{Kind: OriginateErrParseError, Message: "invalid variable pair: " + pair}
			}
			vars.Pairs = append(vars.Pairs, VariablePair{Key: key, Value: unescapeVariableValue(val)})
		}
	}
	return vars, rest, nil
}

// Endpoint is the dial target of an Originate command.
type Endpoint interface {
	String() string
}

// EndpointGeneric dials a bare URI, e.g. "user/1000" or "sofia/internal/123@host".
type EndpointGeneric struct {
	URI       string
	Variables Variables
}

func (e EndpointGeneric) String() string {
	if e.Variables.IsEmpty() {
		return e.URI
	}
	return e.Variables.String() + e.URI
}

// EndpointLoopback dials through the loopback endpoint: "loopback/uri/context".
type EndpointLoopback struct {
	URI       string
	Context   string
	Variables Variables
}

func (e EndpointLoopback) String() string {
	prefix := ""
	if !e.Variables.IsEmpty() {
		prefix = e.Variables.String()
	}
	return fmt.Sprintf("%sloopback/%s/%s", prefix, e.URI, e.Context)
}

// EndpointSofiaGateway dials out through a configured Sofia gateway:
// "sofia/gateway/gateway/uri".
type EndpointSofiaGateway struct {
	URI       string
	Gateway   string
	Variables Variables
}

func (e EndpointSofiaGateway) String() string {
	prefix := ""
	if !e.Variables.IsEmpty() {
		prefix = e.Variables.String()
	}
	return fmt.Sprintf("%ssofia/gateway/%s/%s", prefix, e.Gateway, e.URI)
}

// withOriginationUUID returns e with an origination_uuid channel variable
// set to id, unless the caller already supplied one.
func withOriginationUUID(e Endpoint, id string) Endpoint {
	switch ep := e.(type) {
	case EndpointGeneric:
		if !ep.Variables.Has("origination_uuid") {
			ep.Variables.Set("origination_uuid", id)
		}
		return ep
	case EndpointLoopback:
		if !ep.Variables.Has("origination_uuid") {
			ep.Variables.Set("origination_uuid", id)
		}
		return ep
	case EndpointSofiaGateway:
		if !ep.Variables.Has("origination_uuid") {
			ep.Variables.Set("origination_uuid", id)
		}
		return ep
	default:
		return e
	}
}

// ParseEndpoint parses an endpoint string, including any leading
// Variables block.
func ParseEndpoint(s string) (Endpoint, error) {
	vars, rest, err := ParseVariables(s)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(rest, "loopback/"):
		body := strings.TrimPrefix(rest, "loopback/")
		idx := strings.LastIndex(body, "/")
		if idx < 0 {
			return EndpointLoopback{URI: body, Variables: vars}, nil
		}
		return EndpointLoopback{URI: body[:idx], Context: body[idx+1:], Variables: vars}, nil
	case strings.HasPrefix(rest, "sofia/gateway/"):
		body := strings.TrimPrefix(rest, "sofia/gateway/")
		gw, uri, ok := strings.Cut(body, "/")
		if !ok {
			return EndpointSofiaGateway{Gateway: body, Variables: vars}, nil
		}
		return EndpointSofiaGateway{Gateway: gw, URI: uri, Variables: vars}, nil
	default:
		return EndpointGeneric{URI: rest, Variables: vars}, nil
	}
}

// Application is one dialplan application invocation within an
// ApplicationList, e.g. "conference" with args "1".
type Application struct {
	Name    string
	Args    string
	HasArgs bool
}

// NewApplication builds an Application; an empty args means no arguments.
func NewApplication(name, args string) Application {
	if args == "" {
		return Application{Name: name}
	}
	return Application{Name: name, Args: args, HasArgs: true}
}

func (a Application) toStringWithDialplan(d DialplanType) string {
	if d == DialplanXML {
		return fmt.Sprintf("&%s(%s)", a.Name, a.Args)
	}
	return fmt.Sprintf("%s:%s", a.Name, a.Args)
}

// ApplicationList is the ordered sequence of applications an originate
// command runs once the call connects.
type ApplicationList []Application

// ToStringWithDialplan renders the list for the given dialplan. A single
// application always renders; two or more applications render only under
// DialplanInline (XML dialplans support exactly one application per leg).
func (l ApplicationList) ToStringWithDialplan(d DialplanType) (string, error) {
	if len(l) == 0 {
		return "", &OriginateError{Kind: OriginateErrParseError, Message: "empty application list"}
	}
	if len(l) == 1 {
		return l[0].toStringWithDialplan(d), nil
	}
	if d == DialplanXML {
		return "", &OriginateError{Kind: OriginateErrTooManyApplications}
	}
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.toStringWithDialplan(d)
	}
	return strings.Join(parts, ","), nil
}

// Originate is a fully-built "originate" command. Context, CidName, CidNum,
// and Timeout are the trailing positional fields from the wire grammar
// (originate <endpoint> <apps> [<dialplan>] [<context>] [<cid_name>]
// [<cid_num>] [<timeout>]). Because the wire has no way to leave an earlier
// position blank while filling a later one, each field's HasX flag may
// only be set once every field before it in that order is also set; Format
// rejects a gap.
type Originate struct {
	Endpoint Endpoint
	Apps     ApplicationList
	Dialplan DialplanType

	Context    string
	HasContext bool
	CidName    string
	HasCidName bool
	CidNum     string
	HasCidNum  bool
	Timeout    int
	HasTimeout bool
}

// Format renders o to its wire string, or an error if Apps cannot be
// rendered under Dialplan (e.g. two applications under DialplanXML), or if
// a trailing positional field is set without the fields before it.
func (o Originate) Format() (string, error) {
	appsStr, err := o.Apps.ToStringWithDialplan(o.Dialplan)
	if err != nil {
		return "", err
	}

	if o.HasTimeout && !(o.HasContext && o.HasCidName && o.HasCidNum) {
		return "", &OriginateError{Kind: OriginateErrParseError, Message: "timeout requires context, cid_name, and cid_num to be set"}
	}
	if o.HasCidNum && !(o.HasContext && o.HasCidName) {
		return "", &OriginateError{Kind: OriginateErrParseError, Message: "cid_num requires context and cid_name to be set"}
	}
	if o.HasCidName && !o.HasContext {
		return "", &OriginateError{Kind: OriginateErrParseError, Message: "cid_name requires context to be set"}
	}

	tokens := []string{"originate", o.Endpoint.String(), appsStr, o.Dialplan.String()}
	if o.HasContext {
		tokens = append(tokens, escapeVariableValue(o.Context))
	}
	if o.HasCidName {
		tokens = append(tokens, escapeVariableValue(o.CidName))
	}
	if o.HasCidNum {
		tokens = append(tokens, escapeVariableValue(o.CidNum))
	}
	if o.HasTimeout {
		tokens = append(tokens, strconv.Itoa(o.Timeout))
	}
	return strings.Join(tokens, " "), nil
}

// String renders o, returning an empty string if Format would error; use
// Format directly when the error matters.
func (o Originate) String() string {
	s, err := o.Format()
	if err != nil {
		return ""
	}
	return s
}

// ParseOriginate parses a wire-format "originate" command string,
// including any Variables block embedded in the endpoint.
func ParseOriginate(s string) (Originate, error) {
	tokens, err := originateSplit(s, ' ')
	if err != nil {
		return Originate{}, err
	}
	if len(tokens) < 3 || tokens[0] != "originate" {
		return Originate{}, &OriginateError{Kind: OriginateErrParseError, Message: "invalid originate command: " + s}
	}

	endpoint, err := ParseEndpoint(tokens[1])
	if err != nil {
		return Originate{}, err
	}

	dialplan := DialplanInline
	if len(tokens) >= 4 {
		dialplan, err = ParseDialplanType(tokens[3])
		if err != nil {
			return Originate{}, err
		}
	}

	apps, err := parseApplicationList(tokens[2], &dialplan)
	if err != nil {
		return Originate{}, err
	}

	o := Originate{Endpoint: endpoint, Apps: apps, Dialplan: dialplan}
	if len(tokens) >= 5 {
		o.Context = unescapeVariableValue(tokens[4])
		o.HasContext = true
	}
	if len(tokens) >= 6 {
		o.CidName = unescapeVariableValue(tokens[5])
		o.HasCidName = true
	}
	if len(tokens) >= 7 {
		o.CidNum = unescapeVariableValue(tokens[6])
		o.HasCidNum = true
	}
	if len(tokens) >= 8 {
		timeout, err := strconv.Atoi(tokens[7])
		if err != nil {
			return Originate{}, &OriginateError{Kind: OriginateErrParseError, Message: "invalid timeout: " + tokens[7]}
		}
		o.Timeout = timeout
		o.HasTimeout = true
	}
	return o, nil
}
