// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"
)

// Name distribution record strides in 32-bit words.
const (
	nameRecordWords16 = 5 // TIPC 1.5/1.6 record
	nameRecordWords17 = 7 // TIPC 1.7 record, adds owner and scope
)

// PublicationRecord is one decoded entry of a name distribution payload.
// Immutable once parsed.
type PublicationRecord struct {
	NameType uint32
	Lower    uint32
	Upper    uint32
	PortRef  uint32 // random port identity component
	Key      uint32 // verification key

	// TIPC 1.7 fields, valid only for the seven-word stride.
	Node         Address
	Distribution uint32
	Scope        uint32
}

// nameTableStride resolves the record stride for a v2 name distribution
// payload. Strict profiles pin their revision's stride; under "all" the
// per-message item size decides, with zero meaning the 1.6-compatible
// five-word record.
func (d *Decoder) nameTableStride(itemSize int) int {
	switch d.profile {
	case ProfileV16:
		return nameRecordWords16
	case ProfileV17:
		if itemSize > nameRecordWords17 {
			return itemSize
		}
		return nameRecordWords17
	default:
		if itemSize == 0 {
			return nameRecordWords16
		}
		return itemSize
	}
}

// decodeNameTable decodes the record table of a v2 name distribution
// payload, using the stride resolved from the profile and item size.
func (d *Decoder) decodeNameTable(st *state, v *view, msg *Field, itemSize int) int {
	stride := d.nameTableStride(itemSize)
	if stride < nameRecordWords16 {
		d.warn(st, WarnStructural, v.payloadOff(),
			"item size %d below the minimum record of %d words", stride, nameRecordWords16)
		stride = nameRecordWords16
	}
	return d.decodeNameTableStride(st, v, msg, stride)
}

// decodeNameTableStride iterates fixed-stride publication records over
// the payload until fewer than stride words remain; trailing bytes stay
// unconsumed. Record words beyond the seven specified by TIPC 1.7 are
// surfaced as unspecified bytes with a warning rather than silently
// skipped.
func (d *Decoder) decodeNameTableStride(st *state, v *view, msg *Field, stride int) int {
	payload := v.payload()
	recLen := stride * 4
	n := 0
	flagged := false
	for pos := 0; pos+recLen <= len(payload); pos += recLen {
		off := v.payloadOff() + pos
		rec := msg.Add(&Field{
			Name:   "publication",
			Offset: off,
			Length: recLen,
		})
		r := decodePublication(payload[pos:pos+recLen], stride)
		rec.AddUint("port name type", off, 4, r.NameType)
		rec.AddUint("lower bound", off+4, 4, r.Lower)
		rec.AddUint("upper bound", off+8, 4, r.Upper)
		rec.AddUint("port reference", off+12, 4, r.PortRef)
		rec.AddUint("key", off+16, 4, r.Key)
		if stride >= nameRecordWords17 {
			rec.AddAddr("owner processor", off+20, r.Node)
			rec.AddUint("distribution", off+24, 4, r.Distribution)
			rec.AddString("scope", off+24, 4, r.Scope, ScopeName(r.Scope))
		}
		if stride > nameRecordWords17 {
			extra := (stride - nameRecordWords17) * 4
			rec.Add(&Field{
				Name:    "unspecified",
				Offset:  off + nameRecordWords17*4,
				Length:  extra,
				Display: fmt.Sprintf("%d bytes not specified in this revision", extra),
			})
			if !flagged {
				d.warn(st, WarnUnknownRevision, off+nameRecordWords17*4,
					"record width %d words not specified in this revision", stride)
				flagged = true
			}
		}
		rec.Display = fmt.Sprintf("type %d, range %d..%d", r.NameType, r.Lower, r.Upper)
		n++
	}
	return n
}

// decodePublication parses one record of the given stride. The slice
// must hold stride*4 bytes.
func decodePublication(b []byte, stride int) PublicationRecord {
	w := func(i int) uint32 { return binary.BigEndian.Uint32(b[i*4:]) }
	r := PublicationRecord{
		NameType: w(0),
		Lower:    w(1),
		Upper:    w(2),
		PortRef:  w(3),
		Key:      w(4),
	}
	if stride >= nameRecordWords17 {
		r.Node = Address(w(5))
		r.Distribution = bits(w(6), 8, 0xff)
		r.Scope = bits(w(6), 0, 0xff)
	}
	return r
}
