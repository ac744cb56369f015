// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testutil builds synthetic TIPC messages for tests.
package testutil

import (
	"encoding/binary"
)

// Word 0 field positions, mirrored from the decoder so builders stay
// independent of it.
const (
	versionShift = 29
	userShift    = 25
	hdrSizeShift = 21
	msgSizeMask  = 0x1ffff
)

// MsgBuilder assembles one TIPC message: a fixed number of header words
// plus payload bytes. The message size field of word 0 is computed when
// the bytes are rendered.
type MsgBuilder struct {
	words   []uint32
	payload []byte
}

// NewMsg starts a message with the given version, user and header size
// in words.
func NewMsg(version, user uint8, hdrWords int) *MsgBuilder {
	b := &MsgBuilder{words: make([]uint32, hdrWords)}
	b.words[0] = uint32(version)<<versionShift |
		uint32(user&0xf)<<userShift |
		uint32(hdrWords&0xf)<<hdrSizeShift
	return b
}

// SetWord overwrites header word i.
func (b *MsgBuilder) SetWord(i int, w uint32) *MsgBuilder {
	b.words[i] = w
	return b
}

// OrWord ors bits into header word i.
func (b *MsgBuilder) OrWord(i int, w uint32) *MsgBuilder {
	b.words[i] |= w
	return b
}

// MsgType sets the 3-bit message type in word 1.
func (b *MsgBuilder) MsgType(t uint32) *MsgBuilder {
	return b.OrWord(1, (t&0x7)<<29)
}

// Payload appends payload bytes.
func (b *MsgBuilder) Payload(p []byte) *MsgBuilder {
	b.payload = append(b.payload, p...)
	return b
}

// Bytes renders the message, stamping the total size into word 0.
func (b *MsgBuilder) Bytes() []byte {
	size := len(b.words)*4 + len(b.payload)
	out := make([]byte, 0, size)
	for i, w := range b.words {
		if i == 0 {
			w = w&^uint32(msgSizeMask) | uint32(size)&msgSizeMask
		}
		out = binary.BigEndian.AppendUint32(out, w)
	}
	return append(out, b.payload...)
}

// Bundle concatenates whole messages into a bundle payload, padding each
// to the 4-byte wire alignment.
func Bundle(msgs ...[]byte) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

// Split cuts a buffer into chunks of at most n bytes.
func Split(data []byte, n int) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		c := n
		if c > len(data) {
			c = len(data)
		}
		out = append(out, data[:c])
		data = data[c:]
	}
	return out
}
