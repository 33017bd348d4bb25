package resolver

import (
	"encoding/binary"
	"net"
	"time"

	"dnsproxy/internal/dns"
)

const blockedResponseTTL = 60 * time.Second

// errorResponse builds a minimal response carrying rcode, echoing the
// original transaction ID when the query was at least parseable enough to
// extract one, and falling back to ID 0 otherwise.
func (r *Resolver) errorResponse(query []byte, rcode dns.RCode) []byte {
	var id uint16
	if len(query) >= 2 {
		id = binary.BigEndian.Uint16(query[0:2])
	}
	h := dns.Header{
		ID:    id,
		Flags: dns.QRFlag | dns.RAFlag | uint16(rcode),
	}
	b, _ := h.Marshal()
	return b
}

// blockedResponse synthesizes the configured sinkhole answer for a blocked
// query: an address record pointing at a fixed IP, an empty NOERROR
// ("nodata"), or NXDOMAIN.
func (r *Resolver) blockedResponse(req dns.Packet) []byte {
	q := req.Questions[0]

	switch r.Block.Type {
	case "address":
		rec := addressRecordFor(q, r.Block.IPv4, r.Block.IPv6)
		if rec == nil {
			return r.nodataResponse(req)
		}
		pkt := dns.Packet{
			Header:    responseHeader(req, dns.RCodeNoError),
			Questions: req.Questions,
			Answers:   []dns.Record{rec},
		}
		b, err := pkt.Marshal()
		if err != nil {
			return r.errorResponseFromPacket(req, dns.RCodeServFail)
		}
		return b
	case "nxdomain":
		return r.errorResponseFromPacket(req, dns.RCodeNXDomain)
	default: // "nodata" and unrecognized values
		return r.nodataResponse(req)
	}
}

func (r *Resolver) nodataResponse(req dns.Packet) []byte {
	return r.errorResponseFromPacket(req, dns.RCodeNoError)
}

// errorResponseFromPacket builds a response echoing the parsed request's
// question section, used once the packet is known to be well-formed.
func (r *Resolver) errorResponseFromPacket(req dns.Packet, rcode dns.RCode) []byte {
	pkt := dns.Packet{
		Header:    responseHeader(req, rcode),
		Questions: req.Questions,
	}
	b, err := pkt.Marshal()
	if err != nil {
		h := dns.Header{ID: req.Header.ID, Flags: dns.QRFlag | dns.RAFlag | uint16(dns.RCodeServFail)}
		b, _ := h.Marshal()
		return b
	}
	return b
}

func responseHeader(req dns.Packet, rcode dns.RCode) dns.Header {
	return dns.Header{
		ID:    req.Header.ID,
		Flags: dns.QRFlag | dns.RAFlag | (req.Header.Flags & dns.RDFlag) | uint16(rcode),
	}
}

func addressRecordFor(q dns.Question, ipv4, ipv6 string) dns.Record {
	h := dns.RRHeader{Name: q.Name, Class: q.Class, TTL: uint32(blockedResponseTTL.Seconds())}
	switch dns.RecordType(q.Type) {
	case dns.TypeA:
		addr := ipv4
		if addr == "" {
			addr = "0.0.0.0"
		}
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil
		}
		return dns.NewIPRecord(h, ip)
	case dns.TypeAAAA:
		addr := ipv6
		if addr == "" {
			addr = "::"
		}
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil
		}
		return dns.NewIPRecord(h, ip)
	default:
		return nil
	}
}

// rewriteID swaps the transaction ID in a cached/upstream response to
// match the ID the client actually sent, since a cached answer was stored
// under whatever ID first populated it.
func rewriteID(packet []byte, id uint16) []byte {
	if len(packet) < 2 {
		return packet
	}
	out := make([]byte, len(packet))
	copy(out, packet)
	binary.BigEndian.PutUint16(out[0:2], id)
	return out
}

func recordTypeName(t uint16) string {
	switch dns.RecordType(t) {
	case dns.TypeA:
		return "A"
	case dns.TypeAAAA:
		return "AAAA"
	case dns.TypeCNAME:
		return "CNAME"
	case dns.TypeNS:
		return "NS"
	case dns.TypePTR:
		return "PTR"
	case dns.TypeMX:
		return "MX"
	case dns.TypeTXT:
		return "TXT"
	case dns.TypeSOA:
		return "SOA"
	default:
		return "UNKNOWN"
	}
}

func rcodeName(rc dns.RCode) string {
	switch rc {
	case dns.RCodeNoError:
		return "NOERROR"
	case dns.RCodeFormErr:
		return "FORMERR"
	case dns.RCodeServFail:
		return "SERVFAIL"
	case dns.RCodeNXDomain:
		return "NXDOMAIN"
	case dns.RCodeNotImp:
		return "NOTIMP"
	case dns.RCodeRefused:
		return "REFUSED"
	default:
		return "UNKNOWN"
	}
}
