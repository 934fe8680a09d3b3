package fsswitch

import "fmt"

// AppCommand is the execute-app (dialplan application) equivalent of a
// sendmsg, deferring its uuid to the caller (Client.Execute's uuid
// parameter), matching the original source's AppCommand constructors.
type AppCommand struct {
	App     string
	Args    string
	HasArgs bool
}

// Answer answers the channel.
func Answer() AppCommand { return AppCommand{App: "answer"} }

// Hangup hangs up the channel, optionally with a specific cause (e.g.
// "NORMAL_CLEARING"); an empty cause uses FreeSWITCH's default.
func Hangup(cause string) AppCommand {
	if cause == "" {
		return AppCommand{App: "hangup"}
	}
	return AppCommand{App: "hangup", Args: cause, HasArgs: true}
}

// Playback plays a file, tone_stream://, or other FreeSWITCH file URI.
func Playback(file string) AppCommand {
	return AppCommand{App: "playback", Args: file, HasArgs: true}
}

// Bridge bridges to destination (e.g. "sofia/gateway/gw/number").
func Bridge(destination string) AppCommand {
	return AppCommand{App: "bridge", Args: destination, HasArgs: true}
}

// SetVar sets a channel variable via the "set" application.
func SetVar(name, value string) AppCommand {
	return AppCommand{App: "set", Args: fmt.Sprintf("%s=%s", name, value), HasArgs: true}
}

// Park suspends dialplan execution until another command picks up the
// channel.
func Park() AppCommand { return AppCommand{App: "park"} }

// Transfer moves the channel to another dialplan extension, optionally
// specifying dialplan and context.
func Transfer(extension, dialplan, context string) AppCommand {
	args := extension
	if dialplan != "" {
		args += " " + dialplan
	}
	if context != "" {
		args += " " + context
	}
	return AppCommand{App: "transfer", Args: args, HasArgs: true}
}

// Sleep pauses the channel for the given number of milliseconds.
func Sleep(milliseconds int) AppCommand {
	return AppCommand{App: "sleep", Args: fmt.Sprintf("%d", milliseconds), HasArgs: true}
}
