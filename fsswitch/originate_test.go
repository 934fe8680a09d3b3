package fsswitch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVariablesStringRoundTrip(t *testing.T) {
	v := NewVariables(VariablesDefault)
	v.Set("origination_caller_id_number", "9005551212")
	v.Set("ignore_early_media", "true")

	wire := v.String()
	require.Equal(t, "{origination_caller_id_number=9005551212,ignore_early_media=true}", wire)

	parsed, rest, err := ParseVariables(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, v, parsed)
}

func TestVariablesEnterpriseDelimiters(t *testing.T) {
	v := NewVariables(VariablesEnterprise)
	v.Set("sip_h_Call-Info", "<url>;meta=123")

	wire := v.String()
	require.Equal(t, `<sip_h_Call-Info=<url>;meta=123>`, wire)

	parsed, rest, err := ParseVariables(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, v, parsed)
}

func TestVariablesWithSpaceIsQuoted(t *testing.T) {
	v := NewVariables(VariablesDefault)
	v.Set("effective_caller_id_name", "John Doe")

	wire := v.String()
	require.Contains(t, wire, "'John Doe'")

	parsed, rest, err := ParseVariables(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, "John Doe", parsed.Pairs[0].Value)
}

func TestVariablesChannelBrackets(t *testing.T) {
	v := NewVariables(VariablesChannel)
	v.Set("a", "1")
	wire := v.String()
	require.Equal(t, "[a=1]", wire)

	parsed, rest, err := ParseVariables(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, VariablesChannel, parsed.Type)
}

func TestParseVariablesNoLeadingBlockReturnsUnchanged(t *testing.T) {
	vars, rest, err := ParseVariables("sofia/internal/1000@host")
	require.NoError(t, err)
	require.True(t, vars.IsEmpty())
	require.Equal(t, "sofia/internal/1000@host", rest)
}

func TestEndpointGenericRoundTrip(t *testing.T) {
	e := EndpointGeneric{URI: "user/1000"}
	require.Equal(t, "user/1000", e.String())

	parsed, err := ParseEndpoint(e.String())
	require.NoError(t, err)
	require.Equal(t, e, parsed)
}

func TestEndpointLoopbackRoundTrip(t *testing.T) {
	e := EndpointLoopback{URI: "1000", Context: "default"}
	wire := e.String()
	require.Equal(t, "loopback/1000/default", wire)

	parsed, err := ParseEndpoint(wire)
	require.NoError(t, err)
	require.Equal(t, e, parsed)
}

func TestEndpointSofiaGatewayRoundTrip(t *testing.T) {
	e := EndpointSofiaGateway{Gateway: "idt2", URI: "999002348038207883"}
	wire := e.String()
	require.Equal(t, "sofia/gateway/idt2/999002348038207883", wire)

	parsed, err := ParseEndpoint(wire)
	require.NoError(t, err)
	require.Equal(t, e, parsed)
}

func TestEndpointSofiaGatewayWithVariables(t *testing.T) {
	vars := NewVariables(VariablesDefault)
	vars.Set("origination_caller_id_number", "+2348038207883")
	vars.Set("ignore_early_media", "true")
	e := EndpointSofiaGateway{Gateway: "idt2", URI: "999002348038207883", Variables: vars}

	wire := e.String()
	require.Equal(t, "{origination_caller_id_number=+2348038207883,ignore_early_media=true}sofia/gateway/idt2/999002348038207883", wire)

	parsed, err := ParseEndpoint(wire)
	require.NoError(t, err)
	require.Equal(t, e, parsed)
}

func TestApplicationListXMLSingleApplication(t *testing.T) {
	apps := ApplicationList{NewApplication("conference", "test")}
	s, err := apps.ToStringWithDialplan(DialplanXML)
	require.NoError(t, err)
	require.Equal(t, "&conference(test)", s)
}

func TestApplicationListXMLRejectsMultiple(t *testing.T) {
	apps := ApplicationList{NewApplication("answer", ""), NewApplication("playback", "x.wav")}
	_, err := apps.ToStringWithDialplan(DialplanXML)
	require.Error(t, err)
	var oe *OriginateError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, OriginateErrTooManyApplications, oe.Kind)
}

func TestApplicationListInlineAllowsMultiple(t *testing.T) {
	apps := ApplicationList{NewApplication("answer", ""), NewApplication("playback", "x.wav")}
	s, err := apps.ToStringWithDialplan(DialplanInline)
	require.NoError(t, err)
	require.Equal(t, "answer:,playback:x.wav", s)
}

func TestOriginateFormatAndParseRoundTrip(t *testing.T) {
	o := Originate{
		Endpoint: EndpointSofiaGateway{Gateway: "idt2", URI: "999002348038207883"},
		Apps:     ApplicationList{NewApplication("conference", "test")},
		Dialplan: DialplanXML,
	}
	wire, err := o.Format()
	require.NoError(t, err)
	require.Equal(t, "originate sofia/gateway/idt2/999002348038207883 &conference(test) XML", wire)

	parsed, err := ParseOriginate(wire)
	require.NoError(t, err)
	require.Equal(t, o, parsed)
}

func TestOriginateThreeTokenDefaultsToInlineDialplan(t *testing.T) {
	parsed, err := ParseOriginate("originate user/1000 answer:")
	require.NoError(t, err)
	require.Equal(t, DialplanInline, parsed.Dialplan)
	require.Equal(t, ApplicationList{{Name: "answer", Args: "", HasArgs: true}}, parsed.Apps)
}

func TestOriginateFormatFailsOnTooManyXMLApplications(t *testing.T) {
	o := Originate{
		Endpoint: EndpointGeneric{URI: "user/1000"},
		Apps:     ApplicationList{NewApplication("answer", ""), NewApplication("playback", "x.wav")},
		Dialplan: DialplanXML,
	}
	_, err := o.Format()
	require.Error(t, err)
	require.Empty(t, o.String())
}

func TestOriginateFormatAndParseWithTrailingFields(t *testing.T) {
	o := Originate{
		Endpoint:   EndpointGeneric{URI: "user/1000"},
		Apps:       ApplicationList{NewApplication("conference", "test")},
		Dialplan:   DialplanXML,
		Context:    "default",
		HasContext: true,
		CidName:    "Jane Doe",
		HasCidName: true,
		CidNum:     "9005551212",
		HasCidNum:  true,
		Timeout:    30,
		HasTimeout: true,
	}
	wire, err := o.Format()
	require.NoError(t, err)
	require.Equal(t, "originate user/1000 &conference(test) XML default 'Jane Doe' 9005551212 30", wire)

	parsed, err := ParseOriginate(wire)
	require.NoError(t, err)
	require.Equal(t, o, parsed)
}

func TestOriginateFormatPartialTrailingFields(t *testing.T) {
	o := Originate{
		Endpoint:   EndpointGeneric{URI: "user/1000"},
		Apps:       ApplicationList{NewApplication("conference", "test")},
		Dialplan:   DialplanXML,
		Context:    "default",
		HasContext: true,
	}
	wire, err := o.Format()
	require.NoError(t, err)
	require.Equal(t, "originate user/1000 &conference(test) XML default", wire)

	parsed, err := ParseOriginate(wire)
	require.NoError(t, err)
	require.Equal(t, o, parsed)
}

func TestOriginateFormatRejectsGapInTrailingFields(t *testing.T) {
	o := Originate{
		Endpoint:  EndpointGeneric{URI: "user/1000"},
		Apps:      ApplicationList{NewApplication("conference", "test")},
		Dialplan:  DialplanXML,
		CidNum:    "9005551212",
		HasCidNum: true,
	}
	_, err := o.Format()
	require.Error(t, err)
}

func TestParseDialplanTypeExactCase(t *testing.T) {
	d, err := ParseDialplanType("XML")
	require.NoError(t, err)
	require.Equal(t, DialplanXML, d)

	_, err = ParseDialplanType("xml")
	require.Error(t, err)
}
