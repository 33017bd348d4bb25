package dns

import (
	"encoding/binary"
	"strings"
)

// Packet represents a complete DNS message (RFC 1035 Section 4).
//
// A DNS packet consists of a header and four sections:
//   - Questions: What the client is asking
//   - Answers: Resource records answering the question
//   - Authorities: Nameserver records pointing to authorities
//   - Additionals: Extra records (e.g., glue records, EDNS OPT)
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// Marshal serializes the packet to DNS wire format (big-endian), compressing
// names that share a suffix with a name already written earlier in the
// message (RFC 1035 §4.1.4). Compression is best-effort: any name that
// cannot be represented with a 14-bit pointer offset is written out in
// full, so encoding never fails solely because compression wasn't possible.
func (p Packet) Marshal() ([]byte, error) {
	h := Header{
		ID:      p.Header.ID,
		Flags:   p.Header.Flags,
		QDCount: uint16(len(p.Questions)),
		ANCount: uint16(len(p.Answers)),
		NSCount: uint16(len(p.Authorities)),
		ARCount: uint16(len(p.Additionals)),
	}

	hb, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	estimatedSize := HeaderSize + len(p.Questions)*50 + (len(p.Answers)+len(p.Authorities)+len(p.Additionals))*40
	c := &nameCompressor{offsets: make(map[string]int, 16), buf: make([]byte, 0, estimatedSize)}
	c.buf = append(c.buf, hb...)

	for _, q := range p.Questions {
		nameWire := c.encodeName(q.Name)
		c.buf = append(c.buf, nameWire...)
		tail := make([]byte, 4)
		binary.BigEndian.PutUint16(tail[0:2], q.Type)
		binary.BigEndian.PutUint16(tail[2:4], q.Class)
		c.buf = append(c.buf, tail...)
	}
	for _, rr := range p.Answers {
		if err := c.appendRecord(rr); err != nil {
			return nil, err
		}
	}
	for _, rr := range p.Authorities {
		if err := c.appendRecord(rr); err != nil {
			return nil, err
		}
	}
	for _, rr := range p.Additionals {
		if err := c.appendRecord(rr); err != nil {
			return nil, err
		}
	}
	return c.buf, nil
}

// nameCompressor tracks the wire offset at which each previously-encoded
// name (and its suffixes) was written, so later names can reuse it via a
// compression pointer instead of repeating the labels.
type nameCompressor struct {
	offsets map[string]int // normalized dotted name -> offset of its first label in buf
	buf     []byte
}

func (c *nameCompressor) appendRecord(rr Record) error {
	h := rr.Header()
	rdata, err := rr.MarshalRData()
	if err != nil {
		return err
	}

	var nameWire []byte
	if rr.Type() == TypeOPT {
		nameWire = []byte{0}
	} else {
		nameWire = c.encodeName(h.Name)
	}
	c.buf = append(c.buf, nameWire...)

	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(rr.Type()))
	binary.BigEndian.PutUint16(fixed[2:4], h.Class)
	binary.BigEndian.PutUint32(fixed[4:8], h.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rdata)))
	c.buf = append(c.buf, fixed...)
	c.buf = append(c.buf, rdata...)
	return nil
}

// encodeName writes domain as labels, substituting a compression pointer
// for the longest suffix already present earlier in the message. Root and
// encoding failures fall back to an uncompressed terminator/ASCII encoding.
func (c *nameCompressor) encodeName(domain string) []byte {
	domain = trimTrailingDots(domain)
	if domain == "" {
		return []byte{0}
	}
	labels := strings.Split(domain, ".")

	out := make([]byte, 0, len(domain)+2)
	for i := 0; i < len(labels); i++ {
		suffix := strings.Join(labels[i:], ".")
		if off, ok := c.offsets[suffix]; ok && off <= 0x3FFF {
			ptr := make([]byte, 2)
			binary.BigEndian.PutUint16(ptr, 0xC000|uint16(off))
			return append(out, ptr...)
		}

		startOffset := len(c.buf) + len(out)
		if startOffset <= 0x3FFF {
			if _, exists := c.offsets[suffix]; !exists {
				c.offsets[suffix] = startOffset
			}
		}

		label := labels[i]
		if len(label) == 0 || len(label) > 63 || !isASCII(label) {
			// Malformed label: emit the remainder uncompressed rather than fail.
			return append(out, fallbackEncodeRemainder(labels[i:])...)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	return out
}

func isASCII(s string) bool {
	for i := range len(s) {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

func fallbackEncodeRemainder(labels []string) []byte {
	out := make([]byte, 0, 16)
	for _, label := range labels {
		if len(label) > 63 {
			label = label[:63]
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	return out
}

// ParsePacket decodes a DNS message, resolving any compression pointers
// against the full buffer. Fails with a wrapped ErrDNSError on truncation,
// invalid label lengths, or pointer cycles.
func ParsePacket(msg []byte) (Packet, error) {
	off := 0
	h, err := ParseHeader(msg, &off)
	if err != nil {
		return Packet{}, err
	}

	p := Packet{Header: h}

	limitCount := func(count uint16, limit int) int {
		if int(count) > limit {
			return limit
		}
		return int(count)
	}

	p.Questions = make([]Question, 0, limitCount(h.QDCount, MaxQuestions))
	for range h.QDCount {
		q, err := ParseQuestion(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Questions = append(p.Questions, q)
	}
	p.Answers = make([]Record, 0, limitCount(h.ANCount, MaxRRPerSection))
	for range h.ANCount {
		rr, err := ParseRecord(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Answers = append(p.Answers, rr)
	}
	p.Authorities = make([]Record, 0, limitCount(h.NSCount, MaxRRPerSection))
	for range h.NSCount {
		rr, err := ParseRecord(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Authorities = append(p.Authorities, rr)
	}
	p.Additionals = make([]Record, 0, limitCount(h.ARCount, MaxRRPerSection))
	for range h.ARCount {
		rr, err := ParseRecord(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Additionals = append(p.Additionals, rr)
	}
	return p, nil
}
