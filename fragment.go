// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"

	"github.com/packetlab/tipc/reassembly"
)

// decodeV2Fragmenter decodes a v2 fragment message. Fragments carry an
// explicit 1-based fragment number and a group id; arrival order does
// not matter. The group completes when a last fragment has been seen and
// every index below it is present.
func (d *Decoder) decodeV2Fragmenter(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	var fragNo, fragMsgNo uint32
	if v.hdr.HdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		fragNo = bits(w4, 16, 0xffff)
		fragMsgNo = bits(w4, 0, 0xffff)
		off := v.wordOff(4)
		msg.AddUint("fragment number", off, 4, fragNo)
		msg.AddUint("fragment message number", off, 4, fragMsgNo)
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	d.summary(st, v, msg, fmt.Sprintf("%s %d of group %d",
		MessageTypeName(Version2, v.hdr.User, mtype), fragNo, fragMsgNo))

	data := v.payload()
	if len(data) == 0 {
		return nil
	}
	if !d.defragment || fragNo == 0 {
		msg.AddBytes("fragment data", v.payloadOff(), len(data), data)
		return nil
	}
	key := reassembly.Key{Conversation: uint64(st.conv), Group: fragMsgNo}
	buf, done := d.frags.AddIndexed(key, int(fragNo)-1, mtype == MTypeLastFragment, data)
	if !done {
		msg.AddBytes("fragment data", v.payloadOff(), len(data), data)
		return nil
	}
	return d.decodeReassembled(st, msg, buf)
}

// decodeV1Segmentation decodes a v1 segmentation manager message.
// Segments arrive in order per link; the group id is derived from the
// link selector, which the wire format does not guarantee unique, so two
// interleaved streams with the same selector collide. The first segment
// alone declares the total reassembled length through the embedded
// message's own size field, from which the expected segment count is
// computed; the store is told that count explicitly.
func (d *Decoder) decodeV1Segmentation(st *state, v *view, msg *Field) error {
	mtype, err := d.internalPrologue(st, v, msg)
	if err != nil {
		return err
	}
	var selector uint32
	if v.hdr.HdrWords > 1 {
		w1, _ := v.word(1)
		selector = bits(w1, 20, 0x1)
		msg.AddUint("link selector", v.wordOff(1), 4, selector)
	}
	d.summary(st, v, msg, MessageTypeName(Version1, v.hdr.User, mtype))

	data := v.payload()
	if len(data) == 0 {
		return nil
	}
	if !d.defragment {
		msg.AddBytes("segment data", v.payloadOff(), len(data), data)
		return nil
	}
	key := reassembly.Key{Conversation: uint64(st.conv), Group: selector}
	if mtype == MTypeFirstSegment && len(data) >= 4 {
		total := int(binary.BigEndian.Uint32(data) & MsgSizeMask)
		count := (total + len(data) - 1) / len(data)
		d.frags.SetTotal(key, count)
		msg.AddUint("reassembled length", v.payloadOff(), 4, uint32(total))
	}
	buf, done := d.frags.AddSequenced(key, data)
	if !done {
		msg.AddBytes("segment data", v.payloadOff(), len(data), data)
		return nil
	}
	return d.decodeReassembled(st, msg, buf)
}

// decodeReassembled re-enters the top-level dispatcher on a reassembled
// buffer. The buffer is fresh, so the subtree rooted here has its own
// offset space starting at zero.
func (d *Decoder) decodeReassembled(st *state, msg *Field, buf []byte) error {
	re := msg.Add(&Field{
		Name:    "reassembled message",
		Length:  len(buf),
		Display: fmt.Sprintf("%d bytes", len(buf)),
	})
	if err := d.dispatch(st, re, buf, 0, len(buf)); err != nil {
		d.warn(st, WarnStructural, 0, "reassembled message: %v", err)
		re.AddBytes("data", 0, len(buf), buf)
	}
	return nil
}
