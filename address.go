// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"
)

// Address is a 32-bit TIPC network address, decomposed as
// zone (8 bits), subnetwork (12 bits) and processor (12 bits).
// It is a pure value; any 32-bit pattern is a valid address and the wire
// format does not range-check the sub-fields.
type Address uint32

// DecodeAddress reads a big-endian 32-bit address from the first four
// bytes of b. It is the caller's job to guarantee len(b) >= 4; the header
// decoder only calls it on bounds-checked words.
func DecodeAddress(b []byte) Address {
	return Address(binary.BigEndian.Uint32(b))
}

// Zone returns the 8-bit zone component.
func (a Address) Zone() uint32 {
	return uint32(a) >> 24 & 0xff
}

// Subnetwork returns the 12-bit subnetwork (cluster) component.
func (a Address) Subnetwork() uint32 {
	return uint32(a) >> 12 & 0xfff
}

// Processor returns the 12-bit processor (node) component.
func (a Address) Processor() uint32 {
	return uint32(a) & 0xfff
}

// String renders the address in the canonical zone.subnetwork.processor
// form. This rendering is stable; golden-output tests depend on it.
func (a Address) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Zone(), a.Subnetwork(), a.Processor())
}

// Endpoint is one side of a TIPC conversation: a processor address plus a
// 32-bit port reference on that processor.
type Endpoint struct {
	Node Address
	Port uint32
}

// String renders the endpoint as address:port.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Node, e.Port)
}
