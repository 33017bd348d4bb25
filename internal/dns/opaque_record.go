package dns

import "fmt"

// OpaqueRecord holds RDATA this package doesn't decode further: a record
// type it doesn't model (TXT is parsed into TXTRecord, but anything
// truly unrecognized lands here), or an OPT pseudo-record's options
// before EDNS decoding picks them apart.
type OpaqueRecord struct {
	H    RRHeader
	T    RecordType
	Data any // always []byte once parsed
}

func NewOpaqueRecord(h RRHeader, rt RecordType, data []byte) *OpaqueRecord {
	return &OpaqueRecord{H: h, T: rt, Data: data}
}

func (r *OpaqueRecord) Type() RecordType     { return r.T }
func (r *OpaqueRecord) Header() RRHeader     { return r.H }
func (r *OpaqueRecord) SetHeader(h RRHeader) { r.H = h }

func (r *OpaqueRecord) MarshalRData() ([]byte, error) {
	if r.Data == nil {
		return nil, nil
	}
	b, ok := r.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: opaque record data must be raw bytes", ErrDNSError)
	}
	return b, nil
}

// ParseOpaqueRData copies rdlen bytes of RDATA verbatim, for any record
// type this package passes through without interpreting.
func ParseOpaqueRData(msg []byte, off *int, rdlen int, rt RecordType) (*OpaqueRecord, error) {
	end := *off + rdlen
	if rdlen < 0 || end > len(msg) {
		return nil, fmt.Errorf("%w: truncated rdata for record type %d", ErrDNSError, rt)
	}
	b := make([]byte, rdlen)
	copy(b, msg[*off:end])
	*off = end
	return &OpaqueRecord{T: rt, Data: b}, nil
}
