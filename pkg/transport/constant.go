package transport

import "errors"

var ErrReadTimeout = errors.New("Transport read deadline exceeded with no data\n")
var ErrPortClosed = errors.New("Serial port closed\n")
var ErrBadConn = errors.New("Serial port bad connection\n")

const (
	// DefaultTerminator is the EOS byte appended to every outgoing line and
	// used to detect the end of an incoming response. Must match the
	// adapter's configured end-of-string setting.
	DefaultTerminator = '\n'

	DefaultBaudRate = 115200
	DefaultDataBits = 8
)
