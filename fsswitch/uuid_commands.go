package fsswitch

import (
	"fmt"
	"strings"
)

// UuidAnswer answers a channel: "uuid_answer <uuid>".
type UuidAnswer struct{ UUID string }

func (c UuidAnswer) String() string { return fmt.Sprintf("uuid_answer %s", c.UUID) }

// UuidBridge bridges two channels: "uuid_bridge <uuid> <other>".
type UuidBridge struct{ UUID, Other string }

func (c UuidBridge) String() string { return fmt.Sprintf("uuid_bridge %s %s", c.UUID, c.Other) }

// UuidDeflect sends a SIP REFER redirecting a channel: "uuid_deflect <uuid> <uri>".
type UuidDeflect struct{ UUID, URI string }

func (c UuidDeflect) String() string { return fmt.Sprintf("uuid_deflect %s %s", c.UUID, c.URI) }

// UuidHold places a channel on or off hold: "uuid_hold [off] <uuid>".
type UuidHold struct {
	UUID string
	Off  bool
}

func (c UuidHold) String() string {
	if c.Off {
		return fmt.Sprintf("uuid_hold off %s", c.UUID)
	}
	return fmt.Sprintf("uuid_hold %s", c.UUID)
}

// UuidKill kills a channel: "uuid_kill <uuid> [cause]".
type UuidKill struct {
	UUID     string
	Cause    string
	HasCause bool
}

func (c UuidKill) String() string {
	if c.HasCause {
		return fmt.Sprintf("uuid_kill %s %s", c.UUID, c.Cause)
	}
	return fmt.Sprintf("uuid_kill %s", c.UUID)
}

// ParseUuidKill parses "uuid_kill <uuid> [cause]", the inverse of String.
func ParseUuidKill(s string) (UuidKill, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || fields[0] != "uuid_kill" {
		return UuidKill{}, &OriginateError{Kind: OriginateErrParseError, Message: "invalid uuid_kill command: " + s}
	}
	if len(fields) >= 3 {
		return UuidKill{UUID: fields[1], Cause: fields[2], HasCause: true}, nil
	}
	return UuidKill{UUID: fields[1]}, nil
}

// UuidGetVar reads a channel variable: "uuid_getvar <uuid> <key>". The
// reply is the bare value with no "+OK" prefix.
type UuidGetVar struct{ UUID, Key string }

func (c UuidGetVar) String() string { return fmt.Sprintf("uuid_getvar %s %s", c.UUID, c.Key) }

// UuidSetVar sets a channel variable: "uuid_setvar <uuid> <key> <value>".
type UuidSetVar struct{ UUID, Key, Value string }

func (c UuidSetVar) String() string {
	return fmt.Sprintf("uuid_setvar %s %s %s", c.UUID, c.Key, c.Value)
}

// UuidTransfer transfers a channel: "uuid_transfer <uuid> <dest> [dialplan]".
type UuidTransfer struct {
	UUID        string
	Destination string
	Dialplan    string
	HasDialplan bool
}

func (c UuidTransfer) String() string {
	if c.HasDialplan {
		return fmt.Sprintf("uuid_transfer %s %s %s", c.UUID, c.Destination, c.Dialplan)
	}
	return fmt.Sprintf("uuid_transfer %s %s", c.UUID, c.Destination)
}

// UuidSendDtmf sends DTMF digits to a channel: "uuid_send_dtmf <uuid> <dtmf>".
type UuidSendDtmf struct{ UUID, Dtmf string }

func (c UuidSendDtmf) String() string {
	return fmt.Sprintf("uuid_send_dtmf %s %s", c.UUID, c.Dtmf)
}
