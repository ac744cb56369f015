// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Framer splits a stream transport into whole TIPC PDUs. TIPC over TCP
// carries no extra framing: each message declares its own total length
// in the 17-bit size field of its first header word, so the framer reads
// the four-byte word 0 and then the remainder of the message.
type Framer struct {
	r io.Reader
}

// NewFramer returns a framer reading from r.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: r}
}

// Next returns the next whole message from the stream. It returns
// io.EOF at a clean message boundary and io.ErrUnexpectedEOF when the
// stream ends mid-message.
func (f *Framer) Next() ([]byte, error) {
	var word0 [4]byte
	if _, err := io.ReadFull(f.r, word0[:]); err != nil {
		return nil, err
	}
	size := int(binary.BigEndian.Uint32(word0[:]) & MsgSizeMask)
	if size < 4 {
		return nil, fmt.Errorf("tipc: framed message size %d below the minimum header", size)
	}
	msg := make([]byte, size)
	copy(msg, word0[:])
	if _, err := io.ReadFull(f.r, msg[4:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return msg, nil
}

// DecodeStream decodes every message framed out of r, invoking emit for
// each result. With stream reassembly disabled the stream is consumed in
// one read and decoded as a single region, with no cross-read framing.
// Decode errors are reported through emit's err argument and do not stop
// the loop; only a transport error ends it.
func (d *Decoder) DecodeStream(r io.Reader, conv Conversation, emit func(*Result, error)) error {
	if !d.streamReassembly {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("tipc: stream read: %w", err)
		}
		if len(data) > 0 {
			emit(d.Decode(data, conv))
		}
		return nil
	}
	f := NewFramer(r)
	for {
		msg, err := f.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tipc: stream framing: %w", err)
		}
		emit(d.Decode(msg, conv))
	}
}
