// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer reports a field read past the end of the available
	// bytes. It fails the decode of the offending message only; it never
	// aborts sibling messages or the surrounding capture.
	ErrShortBuffer = errors.New("tipc: buffer too short")

	// ErrHeaderSize reports a declared header size outside [1,15] words
	// or a message size smaller than the header it claims to carry.
	ErrHeaderSize = errors.New("tipc: invalid header size")
)

// RawHeader is the decoded first word of a TIPC message. Every message of
// either version starts with it.
type RawHeader struct {
	Version  Version
	User     User
	HdrWords int // declared header size in 32-bit words
	MsgSize  int // total message length in bytes, header included

	// v2 flag bits. Valid on payload messages only; internal protocol
	// messages keep these positions reserved.
	NonSequenced  bool
	DestDroppable bool
	SrcDroppable  bool
	Syn           bool
}

// HdrSize returns the declared header size in bytes.
func (h RawHeader) HdrSize() int {
	return h.HdrWords * 4
}

// parseWord0 decodes the common word 0 fields. The v2 flag bits are
// filled in later, once the dispatcher knows whether the message carries
// a payload header.
func parseWord0(w uint32) RawHeader {
	return RawHeader{
		Version:  Version(w >> VersionShift & VersionMask),
		User:     User(w >> UserShift & UserMask),
		HdrWords: int(w >> HdrSizeShift & HdrSizeMask),
		MsgSize:  int(w & MsgSizeMask),
	}
}

// validate checks the word 0 invariants: a header size inside [1,15]
// words and a message size covering at least the header.
func (h RawHeader) validate() error {
	if h.HdrWords < 1 || h.HdrWords > MaxHeaderWords {
		return fmt.Errorf("%w: %d words", ErrHeaderSize, h.HdrWords)
	}
	if h.MsgSize < h.HdrSize() {
		return fmt.Errorf("%w: message size %d below header size %d",
			ErrHeaderSize, h.MsgSize, h.HdrSize())
	}
	return nil
}

// ParseHeader decodes and validates the first header word of data.
// Hosts embedding the decoder in a larger capture pipeline use it to
// recognize TIPC regions cheaply before running a full decode.
func ParseHeader(data []byte) (RawHeader, error) {
	if len(data) < 4 {
		return RawHeader{}, ErrShortBuffer
	}
	h := parseWord0(binary.BigEndian.Uint32(data))
	if err := h.validate(); err != nil {
		return h, err
	}
	return h, nil
}

// MessageLength extracts the 17-bit total message length from the first
// header word of b. Stream transports use it to frame whole PDUs out of a
// byte stream before handing them to Decode.
func MessageLength(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, ErrShortBuffer
	}
	return int(binary.BigEndian.Uint32(b) & MsgSizeMask), nil
}

// view is the unit being decoded: a byte range of the enclosing buffer,
// bounded by the declared message size, plus the parsed word 0. The
// declared size may be shorter than the physical buffer when the buffer
// holds several bundled messages.
type view struct {
	buf []byte
	off int // first byte of this message within buf
	end int // one past the last byte of this message
	hdr RawHeader

	// datatype reports whether this is a payload message rather than an
	// internal control message; it changes which word 5+ fields exist.
	datatype bool
}

// newView carves a message region out of buf starting at off, spanning at
// most length bytes, and parses its first word.
func newView(buf []byte, off, length int) (*view, error) {
	if off < 0 || off+4 > len(buf) || length < 4 {
		return nil, fmt.Errorf("tipc: message header at offset %d: %w", off, ErrShortBuffer)
	}
	hdr := parseWord0(binary.BigEndian.Uint32(buf[off:]))
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	end := off + hdr.MsgSize
	if end > off+length {
		end = off + length
	}
	if end > len(buf) {
		end = len(buf)
	}
	return &view{buf: buf, off: off, end: end, hdr: hdr}, nil
}

// len returns the byte length of the message region.
func (v *view) len() int {
	return v.end - v.off
}

// word returns header word i, bounds-checked against both the declared
// header size and the physically available bytes.
func (v *view) word(i int) (uint32, error) {
	pos := v.off + i*4
	if i < 0 || i >= v.hdr.HdrWords || pos+4 > v.end {
		return 0, fmt.Errorf("tipc: header word %d: %w", i, ErrShortBuffer)
	}
	return binary.BigEndian.Uint32(v.buf[pos:]), nil
}

// wordOff returns the absolute byte offset of header word i.
func (v *view) wordOff(i int) int {
	return v.off + i*4
}

// addr reads header word i as a network address.
func (v *view) addr(i int) (Address, error) {
	w, err := v.word(i)
	return Address(w), err
}

// payloadOff returns the absolute offset of the first payload byte.
func (v *view) payloadOff() int {
	return v.off + v.hdr.HdrSize()
}

// payload returns the payload byte range. The range is empty when the
// declared message size leaves no room past the header.
func (v *view) payload() []byte {
	start := v.payloadOff()
	if start >= v.end {
		return nil
	}
	return v.buf[start:v.end]
}

// bits extracts a sub-field of a header word.
func bits(w uint32, shift, mask uint32) uint32 {
	return w >> shift & mask
}

// flag extracts a single bit of a header word.
func flag(w uint32, bit uint32) bool {
	return w>>bit&1 == 1
}
