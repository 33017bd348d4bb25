package dns

import (
	"encoding/binary"
	"fmt"
)

// RRHeader carries the fields common to every resource record: the owner
// name, class, and TTL. Type is reported separately by each Record
// implementation since it determines how the RDATA is shaped.
type RRHeader struct {
	Name  string
	Class uint16
	TTL   uint32
}

// NewRRHeader creates a record header for an owner name, class, and TTL.
func NewRRHeader(name string, class RecordClass, ttl uint32) RRHeader {
	return RRHeader{Name: name, Class: uint16(class), TTL: ttl}
}

// Record is a single resource record in the answer, authority, or
// additional section of a DNS message. Each supported RR type has its own
// implementation so RDATA stays type-safe; unsupported types fall back to
// OpaqueRecord, which retains the raw RDATA bytes unchanged and echoes them
// back unmodified on re-encode.
type Record interface {
	Type() RecordType
	Header() RRHeader
	SetHeader(RRHeader)
	MarshalRData() ([]byte, error)
}

// ParseRecord parses a single resource record at *off, dispatching on the
// wire type to produce a typed Record. *off is advanced past the record on
// success.
func ParseRecord(msg []byte, off *int) (Record, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	if *off+10 > len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF while reading DNS record", ErrDNSError)
	}
	rrType := RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	rrClass := binary.BigEndian.Uint16(msg[*off+2 : *off+4])
	ttl := binary.BigEndian.Uint32(msg[*off+4 : *off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10
	start := *off
	if start+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF while reading DNS record rdata", ErrDNSError)
	}

	h := RRHeader{Name: name, Class: rrClass, TTL: ttl}

	var rec Record
	switch rrType {
	case TypeA, TypeAAAA:
		rec, err = ParseIPRData(msg, off, rdlen)
	case TypeCNAME, TypeNS, TypePTR:
		rec, err = ParseNameRData(msg, off, start, rdlen, rrType)
	case TypeMX:
		rec, err = ParseMXRData(msg, off, start, rdlen)
	case TypeSOA:
		rec, err = ParseSOARData(msg, off, start, rdlen)
	case TypeTXT:
		rec, err = ParseTXTRData(msg, off, rdlen)
	default:
		rec, err = ParseOpaqueRData(msg, off, rdlen, rrType)
	}
	if err != nil {
		return nil, err
	}
	rec.SetHeader(h)
	return rec, nil
}

// MarshalRecord serializes rec to wire format without name compression. The
// OPT pseudo-record is a special case: its owner name is always the root
// and its CLASS field doubles as the advertised UDP payload size (RFC 6891
// §6.1.2), so it bypasses ordinary name encoding.
func MarshalRecord(rec Record) ([]byte, error) {
	return marshalRecordWithNamer(rec, EncodeName)
}

func marshalRecordWithNamer(rec Record, encodeOwner func(string) ([]byte, error)) ([]byte, error) {
	h := rec.Header()
	rdata, err := rec.MarshalRData()
	if err != nil {
		return nil, err
	}

	var nameWire []byte
	if rec.Type() == TypeOPT {
		nameWire = []byte{0}
	} else {
		nameWire, err = encodeOwner(h.Name)
		if err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, len(nameWire)+10+len(rdata))
	out = append(out, nameWire...)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(rec.Type()))
	binary.BigEndian.PutUint16(fixed[2:4], h.Class)
	binary.BigEndian.PutUint32(fixed[4:8], h.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rdata)))
	out = append(out, fixed...)
	out = append(out, rdata...)
	return out, nil
}
