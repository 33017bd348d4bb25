package dns

import "fmt"

// TXTRecord represents a DNS TXT record. Data may hold a single string,
// several distinct character-strings, or pre-encoded RDATA bytes.
// ParseTXTRData yields a string for one character-string and []string
// otherwise; it never yields []byte.
type TXTRecord struct {
	H    RRHeader
	Data any // string, []string, or []byte
}

// NewTXTRecord creates a new TXT record.
func NewTXTRecord(h RRHeader, data any) *TXTRecord {
	return &TXTRecord{H: h, Data: data}
}

// Type returns TypeTXT.
func (r *TXTRecord) Type() RecordType { return TypeTXT }

// Header returns the record header.
func (r *TXTRecord) Header() RRHeader { return r.H }

// SetHeader sets the record header.
func (r *TXTRecord) SetHeader(h RRHeader) { r.H = h }

// MarshalRData marshals the TXT character-strings to wire format. A single
// string longer than 255 bytes is split into multiple chunks per RFC 1035
// §3.3; a []string element longer than 255 bytes is an error.
func (r *TXTRecord) MarshalRData() ([]byte, error) {
	switch t := r.Data.(type) {
	case string:
		return marshalTXTString(t), nil
	case []string:
		totalLen := 0
		for _, s := range t {
			totalLen += 1 + len(s)
		}
		out := make([]byte, 0, totalLen)
		for _, s := range t {
			b := []byte(s)
			if len(b) > 255 {
				return nil, fmt.Errorf("%w: TXT character-string cannot exceed 255 bytes", ErrDNSError)
			}
			out = append(out, byte(len(b)))
			out = append(out, b...)
		}
		return out, nil
	case []byte:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: TXT record data must be string, []string, or []byte", ErrDNSError)
	}
}

func marshalTXTString(s string) []byte {
	b := []byte(s)
	if len(b) <= 255 {
		out := make([]byte, 1+len(b))
		out[0] = byte(len(b))
		copy(out[1:], b)
		return out
	}
	numChunks := (len(b) + 254) / 255
	out := make([]byte, 0, len(b)+numChunks)
	for i := 0; i < len(b); i += 255 {
		chunk := b[i:]
		if len(chunk) > 255 {
			chunk = chunk[:255]
		}
		out = append(out, byte(len(chunk)))
		out = append(out, chunk...)
	}
	return out
}

// ParseTXTRData parses TXT record RDATA into its character-strings.
func ParseTXTRData(msg []byte, off *int, rdlen int) (*TXTRecord, error) {
	end := *off + rdlen
	if end > len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF reading TXT record", ErrDNSError)
	}
	var strs []string
	for *off < end {
		n := int(msg[*off])
		*off++
		if *off+n > end {
			return nil, fmt.Errorf("%w: TXT character-string overruns RDATA", ErrDNSError)
		}
		strs = append(strs, string(msg[*off:*off+n]))
		*off += n
	}
	if len(strs) == 1 {
		return &TXTRecord{Data: strs[0]}, nil
	}
	return &TXTRecord{Data: strs}, nil
}
