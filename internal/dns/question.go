package dns

import (
	"encoding/binary"
	"fmt"
)

// Question is one entry of a message's question section (RFC 1035
// §4.1.2): the name being asked about, the record type, and the class
// (in practice always ClassIN).
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// Marshal writes the question as an uncompressed name followed by the
// 2-byte type and 2-byte class.
func (q Question) Marshal() ([]byte, error) {
	name, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	b := make([]byte, len(name)+4)
	n := copy(b, name)
	binary.BigEndian.PutUint16(b[n:], q.Type)
	binary.BigEndian.PutUint16(b[n+2:], q.Class)
	return b, nil
}

// ParseQuestion reads one question at *off, advancing past it. The name
// is lowercase-normalized so the rest of the pipeline (cache keys,
// filtering lookups) can compare names case-insensitively without
// re-normalizing.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: truncated question section", ErrDNSError)
	}
	q := Question{
		Name:  NormalizeName(name),
		Type:  binary.BigEndian.Uint16(msg[*off:]),
		Class: binary.BigEndian.Uint16(msg[*off+2:]),
	}
	*off += 4
	return q, nil
}
