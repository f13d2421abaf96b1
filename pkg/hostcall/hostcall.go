// Package hostcall is the entry point of the host simulation: it splits
// "COMMAND|arg|arg" calls, routes them through the dispatcher and formats the
// reply as a host array literal.
package hostcall

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/slefx/plumectl/internal/dispatcher"
)

// Separator splits a call into command and arguments.
const Separator = "|"

// TimestampCommand is answered by the bridge itself with the current UTC time in nanoseconds.
const TimestampCommand = ":TIMESTAMP:"

// Bridge routes host calls to a dispatcher.
type Bridge struct {
	dispatcher *dispatcher.Dispatcher
	version    string
	now        func() time.Time
}

// New creates a bridge for d. version is returned by Version.
func New(d *dispatcher.Dispatcher, version string) *Bridge {
	if version == "" {
		version = "No version set"
	}
	return &Bridge{
		dispatcher: d,
		version:    version,
		now:        time.Now,
	}
}

// Version is the value returned when the host first loads the bridge.
func (b *Bridge) Version() string {
	return b.version
}

// Call handles a single-string call in the format "COMMAND|arg|arg".
func (b *Bridge) Call(input string) string {
	command, args := SplitCall(input)
	return b.CallArgs(command, args)
}

// CallArgs handles a call whose arguments the host already split.
func (b *Bridge) CallArgs(command string, args []string) string {
	if command == TimestampCommand {
		return FormatResponse(fmt.Sprintf("%d", b.now().UTC().UnixNano()), nil)
	}

	if b.dispatcher == nil || !b.dispatcher.HasHandler(command) {
		return FormatResponse(nil, fmt.Errorf("%w: %s", dispatcher.ErrUnknownCommand, command))
	}

	result, err := b.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: b.now(),
	})
	return FormatResponse(result, err)
}

// SplitCall splits "COMMAND|arg|arg" into the command and its arguments.
// Surrounding whitespace of the command is trimmed; arguments are kept as is.
func SplitCall(input string) (command string, args []string) {
	parts := strings.Split(input, Separator)
	command = strings.TrimSpace(parts[0])
	args = parts[1:]
	if len(args) == 0 {
		args = nil
	}
	return command, args
}

// FormatResponse formats a dispatcher result for the host:
//
//	["error", "message"]   on error
//	["ok"]                 for a nil result
//	["ok", "text"]         for a string
//	["ok", <json>]         for anything else, arrays stay host arrays
func FormatResponse(result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", "%s"]`, escape(err.Error()))
	}
	switch v := result.(type) {
	case nil:
		return `["ok"]`
	case string:
		return fmt.Sprintf(`["ok", "%s"]`, escape(v))
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`["error", "%s"]`, escape(err.Error()))
	}
	return fmt.Sprintf(`["ok", %s]`, data)
}

// escape doubles quotes, the host's string escape.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
