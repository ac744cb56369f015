// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"fmt"
	"strings"
)

// internalHandler decodes the words beyond the common prologue of one
// internal sub-protocol. The compatibility profile is an orthogonal axis:
// handlers consult it through the decoder rather than folding it into
// per-user branches.
type internalHandler func(d *Decoder, st *state, v *view, msg *Field) error

// v2InternalHandlers routes v2 internal messages by user id.
// Populated in init to break the initialization cycle through the
// bundler handlers, which recurse back into the dispatcher.
var v2InternalHandlers map[User]internalHandler

// v1InternalHandlers routes v1 internal messages by user id.
// Populated in init for the same reason as v2InternalHandlers.
var v1InternalHandlers map[User]internalHandler

func init() {
	v2InternalHandlers = map[User]internalHandler{
		UserBcastProtocol:    (*Decoder).decodeV2Bcast,
		UserMsgBundler:       (*Decoder).decodeV2Bundler,
		UserLinkProtocol:     (*Decoder).decodeV2LinkProtocol,
		UserConnManager:      (*Decoder).decodeV2ConnManager,
		UserRouteDistributor: (*Decoder).decodeV2RouteDistributor,
		UserChangeover:       (*Decoder).decodeV2Changeover,
		UserNameDistributor:  (*Decoder).decodeV2NameDistributor,
		UserMsgFragmenter:    (*Decoder).decodeV2Fragmenter,
		UserLinkConfig:       (*Decoder).decodeV2LinkConfig,
	}
	v1InternalHandlers = map[User]internalHandler{
		UserV1RoutingManager:  (*Decoder).decodeV1RoutingManager,
		UserV1NameDistributor: (*Decoder).decodeV1NameDistributor,
		UserV1ConnManager:     (*Decoder).decodeV1ConnManager,
		UserV1LinkProtocol:    (*Decoder).decodeV1LinkProtocol,
		UserV1Changeover:      (*Decoder).decodeV1Changeover,
		UserV1SegmentationMgr: (*Decoder).decodeV1Segmentation,
		UserV1MsgBundler:      (*Decoder).decodeV1Bundler,
	}
}

// decodeV2Internal dispatches a v2 internal protocol message.
func (d *Decoder) decodeV2Internal(st *state, v *view, msg *Field) error {
	h, ok := v2InternalHandlers[v.hdr.User]
	if !ok {
		d.warn(st, WarnStructural, v.off, "unknown TIPCv2 user %d", v.hdr.User)
		d.summary(st, v, msg, "Unknown Type")
		msg.AddBytes("data", v.off, v.len(), v.buf[v.off:v.end])
		return nil
	}
	return h(d, st, v, msg)
}

// decodeV1Internal dispatches a v1 internal protocol message.
func (d *Decoder) decodeV1Internal(st *state, v *view, msg *Field) error {
	h, ok := v1InternalHandlers[v.hdr.User]
	if !ok {
		d.warn(st, WarnStructural, v.off, "unknown TIPCv1 user %d", v.hdr.User)
		d.summary(st, v, msg, "Unknown Type")
		msg.AddBytes("data", v.off, v.len(), v.buf[v.off:v.end])
		return nil
	}
	return h(d, st, v, msg)
}

// internalPrologue decodes words 1..3 shared by most internal layouts:
// the message type, the link-level acknowledge and sequence numbers, and
// the previous processor address.
func (d *Decoder) internalPrologue(st *state, v *view, msg *Field) (uint32, error) {
	var mtype uint32
	if v.hdr.HdrWords > 1 {
		w1, err := v.word(1)
		if err != nil {
			return 0, err
		}
		mtype = bits(w1, 29, 0x7)
		msg.AddString("message type", v.wordOff(1), 4, mtype,
			MessageTypeName(effectiveVersion(v), v.hdr.User, mtype))
	}
	if v.hdr.HdrWords > 2 {
		w2, err := v.word(2)
		if err != nil {
			return 0, err
		}
		off := v.wordOff(2)
		msg.AddUint("link level acknowledge number", off, 4, bits(w2, 16, 0xffff))
		msg.AddUint("link level sequence number", off, 4, bits(w2, 0, 0xffff))
	}
	if v.hdr.HdrWords > 3 {
		prev, err := v.addr(3)
		if err != nil {
			return 0, err
		}
		msg.AddAddr("previous processor", v.wordOff(3), prev)
		st.recordNode(prev)
	}
	return mtype, nil
}

// decode17Words decodes words 6..8, which TIPC 1.6 leaves reserved and
// TIPC 1.7 reassigned to per-link originating/destination processors and
// a timestamp. The profile, not the user id, decides the interpretation.
func (d *Decoder) decode17Words(st *state, v *view, msg *Field) error {
	if !d.profile.sees17() {
		return nil
	}
	if v.hdr.HdrWords > 6 {
		orig, err := v.addr(6)
		if err != nil {
			return err
		}
		msg.AddAddr("originating processor", v.wordOff(6), orig)
	}
	if v.hdr.HdrWords > 7 {
		dst, err := v.addr(7)
		if err != nil {
			return err
		}
		msg.AddAddr("destination processor", v.wordOff(7), dst)
	}
	if v.hdr.HdrWords > 8 {
		w8, err := v.word(8)
		if err != nil {
			return err
		}
		msg.AddUint("timestamp", v.wordOff(8), 4, w8)
	}
	return nil
}

// decodeV2Bcast decodes a broadcast maintenance message: the broadcast
// gap being reported plus the 1.7 words.
func (d *Decoder) decodeV2Bcast(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		off := v.wordOff(4)
		msg.AddUint("gap after", off, 4, bits(w4, 16, 0xffff))
		msg.AddUint("gap to", off, 4, bits(w4, 0, 0xffff))
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	d.summary(st, v, msg, MessageTypeName(Version2, v.hdr.User, mtype))
	return nil
}

// decodeV2LinkProtocol decodes a link state message. Words 6..8 are the
// profile-divergent region; everything else is revision-independent.
func (d *Decoder) decodeV2LinkProtocol(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 1 {
		w1, _ := v.word(1)
		msg.AddUint("sequence gap", v.wordOff(1), 4, bits(w1, 16, 0x1fff))
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		off := v.wordOff(4)
		msg.AddUint("next sent broadcast", off, 4, bits(w4, 16, 0xffff))
		msg.AddUint("next sent packet", off, 4, bits(w4, 0, 0xffff))
	}
	if v.hdr.HdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		off := v.wordOff(5)
		msg.AddUint("session number", off, 4, bits(w5, 16, 0xffff))
		msg.AddUint("link priority", off, 4, bits(w5, 4, 0xf))
		msg.AddUint("network plane", off, 4, bits(w5, 1, 0x7))
		msg.AddBool("probe", off, 4, flag(w5, 0))
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	if v.hdr.HdrWords > 9 {
		w9, err := v.word(9)
		if err != nil {
			return err
		}
		off := v.wordOff(9)
		msg.AddUint("message count", off, 4, bits(w9, 16, 0xffff))
		msg.AddUint("link tolerance", off, 4, bits(w9, 0, 0xffff))
	}

	// Reset and activate messages carry the link name in the payload.
	if payload := v.payload(); len(payload) > 0 {
		switch mtype {
		case MTypeLinkReset, MTypeLinkActivate:
			name := strings.TrimRight(string(payload), "\x00")
			msg.AddString("link name", v.payloadOff(), len(payload), 0, name)
		default:
			msg.AddBytes("filler", v.payloadOff(), len(payload), payload)
		}
	}
	d.summary(st, v, msg, MessageTypeName(Version2, v.hdr.User, mtype))
	return nil
}

// decodeV2ConnManager decodes a connection supervision message.
func (d *Decoder) decodeV2ConnManager(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		msg.AddUint("destination port", v.wordOff(4), 4, w4)
	}
	if v.hdr.HdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		msg.AddUint("originating port", v.wordOff(5), 4, w5)
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	d.summary(st, v, msg, MessageTypeName(Version2, v.hdr.User, mtype))
	return nil
}

// decodeV2RouteDistributor decodes a route distribution message; the
// payload is a flat list of router addresses.
func (d *Decoder) decodeV2RouteDistributor(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	n := d.decodeRouteTable(v, msg)
	d.summary(st, v, msg, fmt.Sprintf("%s (%d entries)",
		MessageTypeName(Version2, v.hdr.User, mtype), n))
	return nil
}

// decodeRouteTable walks 4-byte router address entries over the payload,
// leaving any trailing sub-word bytes unconsumed.
func (d *Decoder) decodeRouteTable(v *view, msg *Field) int {
	payload := v.payload()
	n := 0
	for pos := 0; pos+4 <= len(payload); pos += 4 {
		a := DecodeAddress(payload[pos:])
		msg.AddAddr("router address", v.payloadOff()+pos, a)
		n++
	}
	return n
}

// decodeV2Changeover decodes a changeover tunnel message. Both the
// original and the duplicate variant carry a complete message in the
// payload, which re-enters the top-level dispatcher.
func (d *Decoder) decodeV2Changeover(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		msg.AddUint("bearer identity", v.wordOff(4), 4, w4)
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	d.summary(st, v, msg, MessageTypeName(Version2, v.hdr.User, mtype))
	return d.decodeTunnelled(st, v, msg)
}

// decodeTunnelled re-dispatches an encapsulated message carried as the
// payload of a changeover message. A failed inner decode degrades to
// opaque bytes with a warning.
func (d *Decoder) decodeTunnelled(st *state, v *view, msg *Field) error {
	payload := v.payload()
	if len(payload) == 0 {
		return nil
	}
	if err := d.dispatch(st, msg, v.buf, v.payloadOff(), len(payload)); err != nil {
		d.warn(st, WarnStructural, v.payloadOff(), "tunnelled message: %v", err)
		msg.AddBytes("data", v.payloadOff(), len(payload), payload)
	}
	return nil
}

// decodeV2NameDistributor decodes a name distribution message and its
// publication/withdrawal record table.
func (d *Decoder) decodeV2NameDistributor(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	itemSize := 0
	if v.hdr.HdrWords > 9 {
		w9, err := v.word(9)
		if err != nil {
			return err
		}
		itemSize = int(bits(w9, 24, 0xff))
		msg.AddUint("item size", v.wordOff(9), 4, uint32(itemSize))
	}
	n := d.decodeNameTable(st, v, msg, itemSize)
	d.summary(st, v, msg, fmt.Sprintf("%s (%d records)",
		MessageTypeName(Version2, v.hdr.User, mtype), n))
	return nil
}

// decodeV2LinkConfig decodes a neighbour discovery message. Its layout
// shares nothing with the other internal users beyond word 0: word 2 is
// the destination domain and word 4 carries the 1.7 network id.
func (d *Decoder) decodeV2LinkConfig(st *state, v *view, msg *Field) error {
	var mtype uint32
	if v.hdr.HdrWords > 1 {
		w1, err := v.word(1)
		if err != nil {
			return err
		}
		mtype = bits(w1, 29, 0x7)
		msg.AddString("message type", v.wordOff(1), 4, mtype,
			MessageTypeName(Version2, v.hdr.User, mtype))
	}
	if v.hdr.HdrWords > 2 {
		dom, err := v.addr(2)
		if err != nil {
			return err
		}
		msg.AddAddr("destination domain", v.wordOff(2), dom)
	}
	if v.hdr.HdrWords > 3 {
		prev, err := v.addr(3)
		if err != nil {
			return err
		}
		msg.AddAddr("previous processor", v.wordOff(3), prev)
		st.recordNode(prev)
	}
	if v.hdr.HdrWords > 4 && d.profile.sees17() {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		msg.AddUint("network identity", v.wordOff(4), 4, w4)
	}
	if v.hdr.HdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		msg.AddUint("media identity", v.wordOff(5), 4, bits(w5, 0, 0xff))
	}
	if payload := v.payload(); len(payload) > 0 {
		msg.AddBytes("media address", v.payloadOff(), len(payload), payload)
	}
	d.summary(st, v, msg, MessageTypeName(Version2, v.hdr.User, mtype))
	return nil
}

// decodeV1LinkProtocol decodes a v1 link state message.
func (d *Decoder) decodeV1LinkProtocol(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		off := v.wordOff(4)
		msg.AddUint("next sent packet", off, 4, bits(w4, 0, 0xffff))
		msg.AddUint("sequence gap", off, 4, bits(w4, 16, 0xffff))
	}
	if v.hdr.HdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		off := v.wordOff(5)
		msg.AddUint("link priority", off, 4, bits(w5, 4, 0xf))
		msg.AddUint("network plane", off, 4, bits(w5, 1, 0x7))
		msg.AddBool("probe", off, 4, flag(w5, 0))
	}
	if payload := v.payload(); len(payload) > 0 {
		switch mtype {
		case MTypeLinkReset, MTypeLinkActivate:
			name := strings.TrimRight(string(payload), "\x00")
			msg.AddString("link name", v.payloadOff(), len(payload), 0, name)
		default:
			msg.AddBytes("filler", v.payloadOff(), len(payload), payload)
		}
	}
	d.summary(st, v, msg, MessageTypeName(Version1, v.hdr.User, mtype))
	return nil
}

// decodeV1RoutingManager decodes a v1 routing table message.
func (d *Decoder) decodeV1RoutingManager(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	n := d.decodeRouteTable(v, msg)
	d.summary(st, v, msg, fmt.Sprintf("%s (%d entries)",
		MessageTypeName(Version1, v.hdr.User, mtype), n))
	return nil
}

// decodeV1NameDistributor decodes a v1 name distribution message. v1
// records always use the five-word stride.
func (d *Decoder) decodeV1NameDistributor(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	n := d.decodeNameTableStride(st, v, msg, nameRecordWords16)
	d.summary(st, v, msg, fmt.Sprintf("%s (%d records)",
		MessageTypeName(Version1, v.hdr.User, mtype), n))
	return nil
}

// decodeV1ConnManager decodes a v1 connection supervision message.
func (d *Decoder) decodeV1ConnManager(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		msg.AddUint("destination port", v.wordOff(4), 4, w4)
	}
	if v.hdr.HdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		msg.AddUint("originating port", v.wordOff(5), 4, w5)
	}
	d.summary(st, v, msg, MessageTypeName(Version1, v.hdr.User, mtype))
	return nil
}

// decodeV1Changeover decodes a v1 changeover message; like its v2
// counterpart it tunnels a complete message in the payload.
func (d *Decoder) decodeV1Changeover(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		msg.AddUint("bearer identity", v.wordOff(4), 4, w4)
	}
	d.summary(st, v, msg, MessageTypeName(Version1, v.hdr.User, mtype))
	return d.decodeTunnelled(st, v, msg)
}
