package dns

import (
	"encoding/binary"

	"dnsproxy/internal/helpers"
)

// UDP payload sizes this proxy negotiates over EDNS(0) (RFC 6891).
const (
	DefaultUDPPayloadSize     = 512  // the pre-EDNS DNS-over-UDP limit (RFC 1035)
	EDNSDefaultUDPPayloadSize = 1232 // fits inside the common internet MTU without fragmenting
	EDNSMaxUDPPayloadSize     = 4096
	EDNSMinUDPPayloadSize     = 512
)

const ednsOptionHeaderLen = 4

// EDNSOption is one TLV entry inside an OPT record's RDATA.
type EDNSOption struct {
	Code uint16
	Data []byte
}

// allowedEDNSOptions are the only option codes this proxy round-trips;
// everything else is stripped rather than blindly forwarded, since an
// option this proxy doesn't understand could carry client-identifying
// data it has no business passing along unexamined.
var allowedEDNSOptions = map[uint16]bool{
	10: true, // COOKIE
	12: true, // PADDING
}

func (o EDNSOption) Marshal() []byte {
	b := make([]byte, ednsOptionHeaderLen+len(o.Data))
	binary.BigEndian.PutUint16(b[0:2], o.Code)
	binary.BigEndian.PutUint16(b[2:4], helpers.ClampIntToUint16(len(o.Data)))
	copy(b[4:], o.Data)
	return b
}

// ParseEDNSOptions walks raw option TLVs out of an OPT record's RDATA,
// dropping unrecognized codes and stopping early on any TLV that claims
// a length longer than the data actually available.
func ParseEDNSOptions(rdata []byte) []EDNSOption {
	opts := make([]EDNSOption, 0, 2)
	for i := 0; i+ednsOptionHeaderLen <= len(rdata); {
		code := binary.BigEndian.Uint16(rdata[i : i+2])
		length := int(binary.BigEndian.Uint16(rdata[i+2 : i+4]))
		i += ednsOptionHeaderLen

		if length < 0 || length > EDNSMaxUDPPayloadSize || i+length > len(rdata) {
			break
		}
		if allowedEDNSOptions[code] {
			data := make([]byte, length)
			copy(data, rdata[i:i+length])
			opts = append(opts, EDNSOption{Code: code, Data: data})
		}
		i += length
	}
	return opts
}

// MarshalEDNSOptions serializes opts back to RDATA, silently skipping
// any option whose data is larger than this proxy would ever parse back.
func MarshalEDNSOptions(opts []EDNSOption) []byte {
	out := make([]byte, 0, len(opts)*ednsOptionHeaderLen)
	for _, o := range opts {
		if len(o.Data) > EDNSMaxUDPPayloadSize {
			continue
		}
		out = append(out, o.Marshal()...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// OPTRecord is the EDNS pseudo-record (RFC 6891): a NAME/TYPE/CLASS/TTL
// header repurposed to carry the sender's UDP buffer size and extended
// RCODE/version/flags instead of an ordinary record's fields.
//
// TTL field layout:
//
//	+----------------+----------------+
//	| EXTENDED-RCODE |    VERSION     |   bits 31-16
//	+----------------+----------------+
//	|DO|        Z (reserved)          |   bits 15-0
//	+----------------+----------------+
type OPTRecord struct {
	UDPPayloadSize uint16
	ExtendedRCode  uint8
	Version        uint8
	DNSSECOk       bool
	Options        []EDNSOption
}

// CreateOPT builds an OPT record advertising udpPayloadSize, clamped
// into the range EDNSMinUDPPayloadSize..65535.
func CreateOPT(udpPayloadSize int) OPTRecord {
	size := helpers.ClampInt(udpPayloadSize, EDNSMinUDPPayloadSize, 65535)
	return OPTRecord{UDPPayloadSize: helpers.ClampIntToUint16(size)}
}

func (o OPTRecord) Marshal() []byte {
	rdata := make([]byte, 0)
	for _, opt := range o.Options {
		rdata = append(rdata, opt.Marshal()...)
	}

	b := make([]byte, 0, 11+len(rdata))
	b = append(b, 0) // root name

	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(TypeOPT))
	binary.BigEndian.PutUint16(fixed[2:4], o.UDPPayloadSize) // CLASS doubles as the UDP size field
	binary.BigEndian.PutUint32(fixed[4:8], packOPTTTL(o.ExtendedRCode, o.Version, o.DNSSECOk))
	binary.BigEndian.PutUint16(fixed[8:10], helpers.ClampIntToUint16(len(rdata)))
	b = append(b, fixed...)
	return append(b, rdata...)
}

func packOPTTTL(extRCode, version uint8, dnssecOk bool) uint32 {
	ttl := uint32(extRCode)<<24 | uint32(version)<<16
	if dnssecOk {
		ttl |= 1 << 15 // DO flag
	}
	return ttl
}

// ExtractOPT returns the OPT record among additionals, or nil if the
// message carried no EDNS.
func ExtractOPT(additionals []Record) *OPTRecord {
	for _, r := range additionals {
		if r.Type() != TypeOPT {
			continue
		}
		opaque, ok := r.(*OpaqueRecord)
		if !ok {
			continue
		}
		raw, ok := opaque.Data.([]byte)
		if !ok {
			continue
		}
		h := opaque.Header()
		return &OPTRecord{
			UDPPayloadSize: h.Class,
			ExtendedRCode:  helpers.ClampUint32ToUint8((h.TTL >> 24) & 0xFF),
			Version:        helpers.ClampUint32ToUint8((h.TTL >> 16) & 0xFF),
			DNSSECOk:       (h.TTL>>15)&0x1 == 1,
			Options:        ParseEDNSOptions(raw),
		}
	}
	return nil
}

// ClientMaxUDPSize reports the UDP response size the client told us it
// can accept, falling back to DefaultUDPPayloadSize when it advertised
// no EDNS or advertised a smaller size than the pre-EDNS default.
func ClientMaxUDPSize(req Packet) int {
	opt := ExtractOPT(req.Additionals)
	if opt == nil || opt.UDPPayloadSize < DefaultUDPPayloadSize {
		return DefaultUDPPayloadSize
	}
	return int(opt.UDPPayloadSize)
}

// IsTruncated reports whether a raw response message has the TC bit
// set, without a full ParsePacket.
func IsTruncated(responseBytes []byte) bool {
	if len(responseBytes) < 4 {
		return false
	}
	return binary.BigEndian.Uint16(responseBytes[2:4])&TCFlag != 0
}

// AddEDNSToRequestBytes appends an OPT record advertising udpSize to a
// request that doesn't already carry one, bumping ARCOUNT in place.
// Requests that already have EDNS are returned unmodified.
func AddEDNSToRequestBytes(req Packet, reqBytes []byte, udpSize int) []byte {
	if ExtractOPT(req.Additionals) != nil {
		return reqBytes
	}
	if len(reqBytes) < HeaderSize {
		return reqBytes
	}

	optBytes := CreateOPT(udpSize).Marshal()

	arCount := binary.BigEndian.Uint16(reqBytes[10:12])
	if arCount < 65535 {
		arCount++
	}

	out := make([]byte, 0, len(reqBytes)+len(optBytes))
	out = append(out, reqBytes...)
	binary.BigEndian.PutUint16(out[10:12], arCount)
	return append(out, optBytes...)
}
