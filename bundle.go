// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"
)

// decodeV2Bundler decodes a v2 bundle message and unwraps its embedded
// messages.
func (d *Decoder) decodeV2Bundler(st *state, v *view, msg *Field) error {
	if _, err := d.internalPrologue(st, v, msg); err != nil {
		return err
	}
	if err := d.decode17Words(st, v, msg); err != nil {
		return err
	}
	if v.hdr.HdrWords > 9 {
		w9, err := v.word(9)
		if err != nil {
			return err
		}
		msg.AddUint("message count", v.wordOff(9), 4, bits(w9, 16, 0xffff))
	}
	n := d.unbundle(st, v, msg)
	d.summary(st, v, msg, fmt.Sprintf("Message Bundle (%d messages)", n))
	return nil
}

// decodeV1Bundler decodes a v1 bundle message and unwraps its embedded
// messages.
func (d *Decoder) decodeV1Bundler(st *state, v *view, msg *Field) error {
	if _, err := d.internalPrologue(st, v, msg); err != nil {
		return err
	}
	n := d.unbundle(st, v, msg)
	d.summary(st, v, msg, fmt.Sprintf("Message Bundle (%d messages)", n))
	return nil
}

// unbundle extracts one embedded message per iteration from the bundle
// payload and re-enters the top-level dispatcher on each. The consumed
// length is the embedded message's own declared size, rounded up to the
// wire's 4-byte alignment. A declared size that overruns the remaining
// bytes aborts the rest of the loop with a structural warning; messages
// already unwrapped stand.
func (d *Decoder) unbundle(st *state, v *view, msg *Field) int {
	n := 0
	pos := v.payloadOff()
	for pos+4 <= v.end {
		w0 := binary.BigEndian.Uint32(v.buf[pos:])
		size := int(w0 & MsgSizeMask)
		if size < 4 || pos+size > v.end {
			d.warn(st, WarnStructural, pos,
				"invalid bundle size %d with %d bytes remaining", size, v.end-pos)
			break
		}
		if err := d.dispatch(st, msg, v.buf, pos, size); err != nil {
			d.warn(st, WarnStructural, pos, "bundled message: %v", err)
		}
		n++
		pos += align4(size)
	}
	return n
}
