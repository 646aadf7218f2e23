package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionCurrent = 1

// ErrCorrupt is returned when a stored session blob cannot be decoded.
var ErrCorrupt = errors.New("session blob corrupt")

// Encode serializes s without its SessionID, which is carried by the key.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"userID", s.UserID},
		{"email", s.Email},
		{"role", s.Role},
	} {
		if len(field.value) > 255 {
			return nil, errors.New(field.name + " too long")
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrCorrupt
	}

	s := &Session{}
	for _, dst := range []*string{&s.UserID, &s.Email, &s.Role} {
		n, err := reader.ReadByte()
		if err != nil {
			return nil, ErrCorrupt
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, ErrCorrupt
		}
		*dst = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrCorrupt
	}
	if reader.Len() != 0 {
		return nil, ErrCorrupt
	}

	return s, nil
}
