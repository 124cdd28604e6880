package cache

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("decode error")

// DecodeError reports that the bytes stored at Key could not be decoded.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode value at %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decoder converts raw stored bytes into a typed value.
type Decoder[T any] func(data []byte) (T, error)

// DecodeString interprets data as UTF-8 text.
func DecodeString(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid UTF-8")
	}
	return string(data), nil
}

// DecodeInt parses data as a base-10 integer.
func DecodeInt(data []byte) (int64, error) {
	return strconv.ParseInt(string(data), 10, 64)
}

// DecodeFloat parses data as a floating point number.
func DecodeFloat(data []byte) (float64, error) {
	return strconv.ParseFloat(string(data), 64)
}
