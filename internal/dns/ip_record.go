package dns

import (
	"fmt"
	"net"
)

// IPRecord is an A or AAAA record. Which one it is follows from the
// address family of Addr rather than being stored separately, so a
// caller can't construct an inconsistent record.
type IPRecord struct {
	H    RRHeader
	Addr net.IP
}

// NewIPRecord wraps addr in a record header, inferring A vs AAAA from the
// address itself.
func NewIPRecord(h RRHeader, addr net.IP) *IPRecord {
	return &IPRecord{H: h, Addr: addr}
}

func (r *IPRecord) Header() RRHeader     { return r.H }
func (r *IPRecord) SetHeader(h RRHeader) { r.H = h }

// Type returns TypeA for an IPv4 address, TypeAAAA otherwise.
func (r *IPRecord) Type() RecordType {
	if r.Addr.To4() != nil {
		return TypeA
	}
	return TypeAAAA
}

// MarshalRData writes the raw 4 or 16 byte address.
func (r *IPRecord) MarshalRData() ([]byte, error) {
	if ip4 := r.Addr.To4(); ip4 != nil {
		return []byte(ip4), nil
	}
	if ip6 := r.Addr.To16(); ip6 != nil {
		return []byte(ip6), nil
	}
	return nil, fmt.Errorf("%w: invalid IP address", ErrDNSError)
}

// ParseIPRData reads rdlen bytes of A/AAAA RDATA (RFC 1035 §3.4.1): 4
// bytes for an address, 16 for an AAAA.
func ParseIPRData(msg []byte, off *int, rdlen int) (*IPRecord, error) {
	switch rdlen {
	case 4, 16:
	default:
		return nil, fmt.Errorf("%w: A/AAAA rdata must be 4 or 16 bytes, got %d", ErrDNSError, rdlen)
	}
	end := *off + rdlen
	if end > len(msg) {
		return nil, fmt.Errorf("%w: truncated A/AAAA rdata", ErrDNSError)
	}
	addr := make(net.IP, rdlen)
	copy(addr, msg[*off:end])
	*off = end
	return &IPRecord{Addr: addr}, nil
}
