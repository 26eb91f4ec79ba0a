// Package frame implements the length-prefixed two-segment wire framing
// spec.md §3/§4.2 names: an 8-byte size prefix followed by an encoded
// header and an optional encoded payload, written into and read out of a
// caller-supplied fixed-capacity buffer.
//
// spec.md §9(b) notes the source uses native-endian size fields, which is
// only interoperable between same-endianness peers, and that a hardened
// port should standardize on one order. This port always uses
// little-endian, regardless of host architecture.
package frame

import (
	"encoding/binary"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/vmihailenco/msgpack/v5"
)

// HeaderSize is the fixed size of the length prefix: a uint32 header_size
// followed by a uint32 payload_size.
const HeaderSize = 8

// Write serializes header at offset 8 of buf and stamps its length at
// offset 0. If payload is non-nil, it is serialized via reg (payload is a
// dynamically-typed registered value, unlike header which the caller
// always knows statically) immediately after the header, and its length
// is stamped at offset 4; otherwise offset 4 is left as 0 and no payload
// bytes are written, satisfying the empty-payload invariant of spec.md
// §8.
//
// Returns the total number of bytes written (8 + header length + payload
// length), or an *errors.Overflow if that total exceeds len(buf).
func Write(buf []byte, header any, payload any, reg *registry.Registry) (int, error) {
	headerBytes, err := msgpack.Marshal(header)
	if err != nil {
		return 0, plumberrors.NewDecodeError("frame.Write: header", err)
	}

	var payloadBytes []byte
	if payload != nil {
		payloadBytes, err = reg.Encode(payload)
		if err != nil {
			return 0, err
		}
	}

	total := HeaderSize + len(headerBytes) + len(payloadBytes)
	if total > len(buf) {
		return 0, plumberrors.NewOverflow(total, len(buf))
	}

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(headerBytes)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payloadBytes)))
	copy(buf[HeaderSize:], headerBytes)
	copy(buf[HeaderSize+len(headerBytes):], payloadBytes)

	return total, nil
}

// Read parses a frame of exactly n bytes out of buf. header is decoded
// into a fresh H via msgpack. If the frame carries a payload
// (payload_size > 0), payloadIDSelector is called on the decoded header to
// determine which registered type to decode the payload as — this lets
// one frame type carry many payload types (e.g. CommandResponse's
// response_type, EventHeader's event_type). If no payload is present, the
// second return value is nil.
func Read[H any](buf []byte, n int, reg *registry.Registry, payloadIDSelector func(H) uint32) (H, any, error) {
	var header H

	if n < HeaderSize {
		return header, nil, plumberrors.NewDecodeError("frame.Read: truncated prefix", nil)
	}
	headerSize := int(binary.LittleEndian.Uint32(buf[0:4]))
	payloadSize := int(binary.LittleEndian.Uint32(buf[4:8]))

	if n < HeaderSize+headerSize+payloadSize {
		return header, nil, plumberrors.NewDecodeError("frame.Read: truncated body", nil)
	}

	headerBytes := buf[HeaderSize : HeaderSize+headerSize]
	if err := msgpack.Unmarshal(headerBytes, &header); err != nil {
		return header, nil, plumberrors.NewDecodeError("frame.Read: header", err)
	}

	if payloadSize == 0 {
		return header, nil, nil
	}

	payloadBytes := buf[HeaderSize+headerSize : HeaderSize+headerSize+payloadSize]
	id := payloadIDSelector(header)
	value, err := reg.Decode(id, payloadBytes)
	if err != nil {
		return header, nil, err
	}
	return header, value, nil
}
