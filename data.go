// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"fmt"
)

// dataHeader is the routing context accumulated while decoding a payload
// message header.
type dataHeader struct {
	mtype    uint32
	errCode  uint32
	src, dst Endpoint

	nameType    uint32
	hasNameType bool
	instance    uint32
	hasInstance bool
	mcastLower  uint32
	mcastUpper  uint32
	multicast   bool
}

// decodeV1Data decodes a v1 payload message. Header sizes 1..6 are the
// short form: no optional words exist and the payload begins at
// header size * 4. Larger sizes progressively unlock node addresses, the
// port name type, and the instance/multicast words.
func (d *Decoder) decodeV1Data(st *state, v *view, msg *Field) error {
	var h dataHeader
	if v.hdr.HdrWords > 1 {
		w1, err := v.word(1)
		if err != nil {
			return err
		}
		h.mtype = bits(w1, 29, 0x7)
		h.errCode = bits(w1, 25, 0xf)
		off := v.wordOff(1)
		msg.AddString("message type", off, 4, h.mtype,
			MessageTypeName(Version1, v.hdr.User, h.mtype))
		msg.AddString("error code", off, 4, h.errCode, ErrorCodeName(h.errCode))
		msg.AddUint("reroute counter", off, 4, bits(w1, 21, 0xf))
		msg.AddUint("link selector", off, 4, bits(w1, 20, 0x1))
	}
	if v.hdr.HdrWords > 2 {
		w2, err := v.word(2)
		if err != nil {
			return err
		}
		off := v.wordOff(2)
		msg.AddUint("link level acknowledge number", off, 4, bits(w2, 16, 0xffff))
		msg.AddUint("link level sequence number", off, 4, bits(w2, 0, 0xffff))
	}
	if v.hdr.HdrWords > 3 {
		prev, err := v.addr(3)
		if err != nil {
			return err
		}
		msg.AddAddr("previous processor", v.wordOff(3), prev)
	}
	if err := d.decodeDataPorts(st, v, msg, &h, v.hdr.HdrWords); err != nil {
		return err
	}
	d.finishData(st, v, msg, &h)
	return nil
}

// decodeV2Data decodes a v2 payload message. The word layout beyond the
// short form matches v1; word 1 additionally carries the lookup scope
// and, under 1.7 handling, the options position.
func (d *Decoder) decodeV2Data(st *state, v *view, msg *Field) error {
	var h dataHeader
	var optWords int
	if v.hdr.HdrWords > 1 {
		w1, err := v.word(1)
		if err != nil {
			return err
		}
		h.mtype = bits(w1, 29, 0x7)
		h.errCode = bits(w1, 25, 0xf)
		off := v.wordOff(1)
		msg.AddString("message type", off, 4, h.mtype,
			MessageTypeName(Version2, v.hdr.User, h.mtype))
		msg.AddString("error code", off, 4, h.errCode, ErrorCodeName(h.errCode))
		msg.AddUint("reroute counter", off, 4, bits(w1, 21, 0xf))
		msg.AddUint("lookup scope", off, 4, bits(w1, 19, 0x3))
		if d.profile.sees17() {
			optWords = int(bits(w1, 16, 0x7))
			if optWords > 0 {
				msg.AddUint("options position", off, 4, uint32(optWords))
			}
		}
	}
	if v.hdr.HdrWords > 2 {
		w2, err := v.word(2)
		if err != nil {
			return err
		}
		off := v.wordOff(2)
		msg.AddUint("broadcast acknowledge number", off, 4, bits(w2, 16, 0xffff))
		msg.AddUint("link level acknowledge number", off, 4, bits(w2, 0, 0xffff))
	}
	if v.hdr.HdrWords > 3 {
		prev, err := v.addr(3)
		if err != nil {
			return err
		}
		msg.AddAddr("previous processor", v.wordOff(3), prev)
	}

	// Options shrink the effective header: the payload starts opt_p
	// words before the declared header size, the structured words end
	// another opt_p words earlier, and the option bytes sit in between.
	if optWords > 0 && optWords < v.hdr.HdrWords {
		v.hdr.HdrWords -= optWords
	}
	structured := v.hdr.HdrWords
	if optWords > 0 && optWords < structured {
		structured -= optWords
	}
	if err := d.decodeDataPorts(st, v, msg, &h, structured); err != nil {
		return err
	}
	if structured < v.hdr.HdrWords {
		optOff := v.off + structured*4
		if optOff+optWords*4 <= v.end {
			msg.AddBytes("options", optOff, optWords*4, v.buf[optOff:optOff+optWords*4])
		}
	}
	d.finishData(st, v, msg, &h)
	return nil
}

// decodeDataPorts decodes the port words and the long-form optional
// words shared by both versions. hdrWords bounds the structured header:
// no word at or beyond it is read.
//
// Word 9 is genuinely ambiguous on the wire: the same position holds the
// port name instance for header size 10 and the multicast lower bound
// for header size 11 and up. The header size convention is the only
// disambiguator, so the conditional stays explicit.
func (d *Decoder) decodeDataPorts(st *state, v *view, msg *Field, h *dataHeader, hdrWords int) error {
	if hdrWords > 4 {
		w4, err := v.word(4)
		if err != nil {
			return err
		}
		h.src.Port = w4
		msg.AddUint("originating port", v.wordOff(4), 4, w4)
	}
	if hdrWords > 5 {
		w5, err := v.word(5)
		if err != nil {
			return err
		}
		h.dst.Port = w5
		msg.AddUint("destination port", v.wordOff(5), 4, w5)
	}
	if hdrWords > 6 {
		w6, err := v.word(6)
		if err != nil {
			return err
		}
		h.src.Node = Address(w6)
		msg.AddAddr("originating processor", v.wordOff(6), h.src.Node)
	}
	if hdrWords > 7 {
		w7, err := v.word(7)
		if err != nil {
			return err
		}
		h.dst.Node = Address(w7)
		msg.AddAddr("destination processor", v.wordOff(7), h.dst.Node)
	}
	if hdrWords > 8 {
		w8, err := v.word(8)
		if err != nil {
			return err
		}
		h.nameType = w8
		h.hasNameType = true
		msg.AddUint("port name type", v.wordOff(8), 4, w8)
	}
	if hdrWords > 9 {
		w9, err := v.word(9)
		if err != nil {
			return err
		}
		if hdrWords > 10 {
			h.multicast = true
			h.mcastLower = w9
			msg.AddUint("multicast lower bound", v.wordOff(9), 4, w9)
		} else {
			h.instance = w9
			h.hasInstance = true
			msg.AddUint("port name instance", v.wordOff(9), 4, w9)
		}
	}
	if hdrWords > 10 {
		w10, err := v.word(10)
		if err != nil {
			return err
		}
		h.mcastUpper = w10
		msg.AddUint("multicast upper bound", v.wordOff(10), 4, w10)
	}
	return nil
}

// finishData resolves endpoints, renders the summary and hands the
// payload bytes to the sub-decoder registry.
func (d *Decoder) finishData(st *state, v *view, msg *Field, h *dataHeader) {
	st.recordEndpoints(h.src, h.dst)

	text := MessageTypeName(effectiveVersion(v), v.hdr.User, h.mtype)
	switch {
	case h.multicast:
		text = fmt.Sprintf("%s, range %d..%d", text, h.mcastLower, h.mcastUpper)
	case h.hasNameType && h.hasInstance:
		text = fmt.Sprintf("%s, name type %d instance %d", text, h.nameType, h.instance)
	case h.hasNameType:
		text = fmt.Sprintf("%s, name type %d", text, h.nameType)
	}
	if h.errCode != ErrCodeOK {
		text = fmt.Sprintf("%s, error: %s", text, ErrorCodeName(h.errCode))
	}
	d.summary(st, v, msg, text)

	payload := v.payload()
	if len(payload) == 0 {
		return
	}
	if !d.dissectPayload {
		msg.AddBytes("data", v.payloadOff(), len(payload), payload)
		return
	}
	ctx := PayloadContext{
		Version:         effectiveVersion(v),
		User:            v.hdr.User,
		MsgType:         h.mtype,
		PortNameType:    h.nameType,
		HasPortNameType: h.hasNameType,
		Source:          h.src,
		Destination:     h.dst,
		Offset:          v.payloadOff(),
		Tree:            msg,
	}
	d.registry.dispatch(payload, ctx, d.heuristicFirst)
}
