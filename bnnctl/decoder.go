package bnnctl

import "fmt"

// Command byte values on the wire.
const (
	CmdImageSendRequest byte = 0xFE
	CmdClear            byte = 0xFD
)

type Command byte

const (
	CommandUnknown Command = iota
	CommandImageSendRequest
	CommandClear
)

var commandTable = map[byte]Command{
	CmdImageSendRequest: CommandImageSendRequest,
	CmdClear:            CommandClear,
}

func DecodeCommand(b byte) Command {
	if c, ok := commandTable[b]; ok {
		return c
	}
	return CommandUnknown
}

func (c Command) String() string {
	switch c {
	case CommandImageSendRequest:
		return "IMAGE_SEND_REQUEST"
	case CommandClear:
		return "CLEAR"
	case CommandUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("Command(%d)", byte(c))
}

// Request is the transition a decoded command asks the FSM for.
type Request byte

const (
	RequestNone Request = iota
	RequestImage
	RequestClearThenImage
	RequestClear
)

// Dispatch maps the first byte of a frame to a transition request. An image
// request against a dirty buffer asks for a clear first.
func Dispatch(b byte, bufferEmpty bool) (Command, Request) {
	cmd := DecodeCommand(b)
	switch cmd {
	case CommandImageSendRequest:
		if bufferEmpty {
			return cmd, RequestImage
		}
		return cmd, RequestClearThenImage
	case CommandClear:
		return cmd, RequestClear
	}
	return cmd, RequestNone
}
