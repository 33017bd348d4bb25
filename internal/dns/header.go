// Package dns implements the wire format this proxy actually forwards:
// header parsing, name compression, EDNS(0), and the handful of resource
// record types a forwarding cache needs to inspect (A/AAAA, CNAME, NS,
// SOA, MX, TXT, OPT). It is not a general-purpose DNS library — there is
// no authoritative zone storage and no DNSSEC validation, only enough of
// RFC 1035/3596/6891 to parse a query, talk to an upstream, and cache or
// rewrite the answer.
package dns

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDNSError is the sentinel wrapped by every parse failure in this
// package; callers match on it with errors.Is rather than string-matching
// a message.
var ErrDNSError = errors.New("dns wire error")

// Header flag bits and the RCODE mask, RFC 1035 Section 4.1.1:
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA| Z|AD|CD|   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
const (
	QRFlag     uint16 = 1 << 15 // 0x8000: set on responses, clear on queries
	OpcodeMask uint16 = 0x7800  // bits 14-11, shift right 11 to read
	AAFlag     uint16 = 1 << 10 // 0x0400: authoritative answer
	TCFlag     uint16 = 1 << 9  // 0x0200: message truncated, retry over TCP
	RDFlag     uint16 = 1 << 8  // 0x0100: recursion desired
	RAFlag     uint16 = 1 << 7  // 0x0080: recursion available
	ZFlag      uint16 = 1 << 6  // 0x0040: reserved, must stay zero
	ADFlag     uint16 = 1 << 5  // 0x0020: authenticated data (DNSSEC)
	CDFlag     uint16 = 1 << 4  // 0x0010: checking disabled (DNSSEC)
	RCodeMask  uint16 = 0x000F  // bits 3-0: response code
)

// RecordType identifies a resource record's wire type (RFC 1035, RFC 3596,
// RFC 6891).
type RecordType uint16

const (
	TypeA     RecordType = 1
	TypeNS    RecordType = 2
	TypeCNAME RecordType = 5
	TypeSOA   RecordType = 6
	TypePTR   RecordType = 12
	TypeMX    RecordType = 15
	TypeTXT   RecordType = 16
	TypeAAAA  RecordType = 28
	TypeOPT   RecordType = 41 // EDNS pseudo-record, RFC 6891
)

// RecordClass identifies a resource record's class. Only IN is in
// practical use on the modern internet.
type RecordClass uint16

const ClassIN RecordClass = 1

// RCode is a DNS response code (RFC 1035 Section 4.1.1).
type RCode uint16

const (
	RCodeNoError  RCode = 0
	RCodeFormErr  RCode = 1 // malformed query
	RCodeServFail RCode = 2 // resolver-side failure
	RCodeNXDomain RCode = 3 // name does not exist
	RCodeNotImp   RCode = 4 // unsupported query type
	RCodeRefused  RCode = 5 // refused by policy
)

// RCodeFromFlags extracts the response code from a header's flags field.
func RCodeFromFlags(flags uint16) RCode {
	return RCode(flags & RCodeMask)
}

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// HeaderSize is the wire size of a DNS header, always 12 bytes.
const HeaderSize = 12

// RCode reports the response code carried in this header's flags.
func (h Header) RCode() RCode { return RCodeFromFlags(h.Flags) }

// Truncated reports whether the TC bit is set.
func (h Header) Truncated() bool { return h.Flags&TCFlag != 0 }

// Marshal serializes the header to its 12-byte big-endian wire form.
func (h Header) Marshal() ([]byte, error) {
	b := make([]byte, HeaderSize)
	fields := [6]uint16{h.ID, h.Flags, h.QDCount, h.ANCount, h.NSCount, h.ARCount}
	for i, v := range fields {
		binary.BigEndian.PutUint16(b[i*2:i*2+2], v)
	}
	return b, nil
}

// ParseHeader reads a 12-byte header at *off and advances *off past it.
func ParseHeader(msg []byte, off *int) (Header, error) {
	if *off+HeaderSize > len(msg) {
		return Header{}, fmt.Errorf("%w: truncated header", ErrDNSError)
	}
	start := *off
	*off += HeaderSize
	return Header{
		ID:      binary.BigEndian.Uint16(msg[start:]),
		Flags:   binary.BigEndian.Uint16(msg[start+2:]),
		QDCount: binary.BigEndian.Uint16(msg[start+4:]),
		ANCount: binary.BigEndian.Uint16(msg[start+6:]),
		NSCount: binary.BigEndian.Uint16(msg[start+8:]),
		ARCount: binary.BigEndian.Uint16(msg[start+10:]),
	}, nil
}
