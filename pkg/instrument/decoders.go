package instrument

import (
	"bytes"
	"fmt"
	"strconv"

	"gpibgateway/pkg/runtime"
)

func trimResponse(raw []byte) []byte {
	return bytes.TrimRight(raw, "\r\n \x00")
}

func DecodeString(raw []byte) (interface{}, error) {
	return string(trimResponse(raw)), nil
}

func DecodeInt(raw []byte) (interface{}, error) {
	v, err := strconv.Atoi(string(trimResponse(raw)))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func DecodeFloat64(raw []byte) (interface{}, error) {
	v, err := strconv.ParseFloat(string(trimResponse(raw)), 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeBool follows the 488.2 convention of 0/1 registers.
func DecodeBool(raw []byte) (interface{}, error) {
	switch string(trimResponse(raw)) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return nil, fmt.Errorf("not a 0/1 response")
	}
}

// DecoderOf maps a declared decode type to its decoder; RAW yields nil so
// the query returns undecoded bytes.
func DecoderOf(dt runtime.DecodeType) Decoder {
	switch dt {
	case runtime.STRING:
		return DecodeString
	case runtime.INT:
		return DecodeInt
	case runtime.FLOAT64:
		return DecodeFloat64
	case runtime.BOOL:
		return DecodeBool
	default:
		return nil
	}
}
