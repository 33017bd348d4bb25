package dns

import (
	"errors"
	"fmt"

	"dnsproxy/internal/helpers"
)

// Resource limits applied to every inbound message before it is trusted
// any further, bounding the work a single malicious or malformed packet
// can force on the proxy.
const (
	MaxIncomingDNSMessageSize = 4096
	MaxQuestions              = 4
	MaxRRPerSection           = 100
	MaxTotalRR                = 200
)

// ParseRequestBounded parses msg as a client query and rejects anything
// that isn't one: oversized messages, responses (QR set), non-QUERY
// opcodes, or section counts past the limits above. A well-formed
// forwarder never needs to inspect a packet that fails any of these
// checks, so callers can treat ParseRequestBounded's error as "answer
// FORMERR and stop" without further classification.
func ParseRequestBounded(msg []byte) (Packet, error) {
	if len(msg) > MaxIncomingDNSMessageSize {
		return Packet{}, errors.New("dns message too large")
	}

	p, err := ParsePacket(msg)
	if err != nil {
		return Packet{}, err
	}
	if isResponse(p.Header.Flags) {
		return Packet{}, errors.New("invalid packet: QR flag set (response packet received)")
	}
	if opcode := extractOpcode(p.Header.Flags); opcode != 0 {
		return Packet{}, fmt.Errorf("unsupported OpCode: %d", opcode)
	}
	if err := validateSectionCounts(p.Header); err != nil {
		return Packet{}, err
	}
	return p, nil
}

func isResponse(flags uint16) bool { return flags&QRFlag != 0 }

// extractOpcode pulls the 4-bit opcode out of bits 14-11 of the header
// flags.
func extractOpcode(flags uint16) uint16 { return (flags & OpcodeMask) >> 11 }

func validateSectionCounts(h Header) error {
	qd, an, ns, ar := int(h.QDCount), int(h.ANCount), int(h.NSCount), int(h.ARCount)

	switch {
	case qd > MaxQuestions:
		return errors.New("too many questions")
	case qd != 1:
		return errors.New("unsupported question count")
	case an > MaxRRPerSection || ns > MaxRRPerSection || ar > MaxRRPerSection:
		return errors.New("too many resource records")
	case an+ns+ar > MaxTotalRR:
		return errors.New("too many total resource records")
	}
	return nil
}

// BuildErrorResponse builds the error packet this proxy sends back for
// a request it cannot or will not resolve: same ID and question section
// as req, RD preserved, QR set, and rcode as the response code.
func BuildErrorResponse(req Packet, rcode uint16) Packet {
	h := Header{
		ID:      req.Header.ID,
		Flags:   buildResponseFlags(req.Header.Flags, rcode),
		QDCount: helpers.ClampIntToUint16(len(req.Questions)),
	}
	return Packet{Header: h, Questions: req.Questions}
}

// buildResponseFlags sets QR, carries RD over from the request, and
// stamps rcode into the low 4 bits, clearing whatever was there before.
func buildResponseFlags(reqFlags, rcode uint16) uint16 {
	flags := QRFlag | (reqFlags & RDFlag)
	return (flags &^ RCodeMask) | (rcode & RCodeMask)
}
