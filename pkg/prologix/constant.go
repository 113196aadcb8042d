package prologix

import (
	"errors"
	"time"
)

var ErrConnect = errors.New("Adapter unresponsive during startup handshake\n")
var ErrNotConnected = errors.New("Adapter not connected\n")
var ErrAddressInUse = errors.New("Gpib address already in use\n")
var ErrAddressOutOfRange = errors.New("Gpib address out of range\n")
var ErrInstrumentNotFound = errors.New("No instrument registered at address\n")
var ErrUnrecognizedCommand = errors.New("Adapter rejected command\n")

// Mode is the adapter bus role.
type Mode int8

const (
	ModeDevice     Mode = 0
	ModeController Mode = 1
)

var ModeToString = map[Mode]string{
	ModeDevice:     "device",
	ModeController: "controller",
}

var StringToMode = map[string]Mode{
	"device":     ModeDevice,
	"controller": ModeController,
}

// Adapter-native control vocabulary. These never collide with instrument
// command strings: the ++ prefix keeps them on the adapter itself.
const (
	cmdAddress = "++addr"
	cmdMode    = "++mode"
	cmdVersion = "++ver"
	cmdAuto    = "++auto"
	cmdReadEOI = "++read eoi"
)

const (
	// MinAddress and MaxAddress bound assignable primary GPIB addresses.
	MinAddress uint8 = 1
	MaxAddress uint8 = 30

	// addressNone marks the addressed-instrument cache as invalid.
	addressNone int16 = -1

	connectTimeout = 1 * time.Second

	modeReadBytes    = 4
	addressReadBytes = 10
	versionReadBytes = 100
)

// errorStrings are in-band responses the Prologix firmware answers instead
// of instrument data.
var errorStrings = map[string]error{
	"Unrecognized Command": ErrUnrecognizedCommand,
}
