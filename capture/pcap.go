// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/packetlab/tipc"
)

// Frame is one TIPC message found while walking a capture, together
// with the frame it was carried in.
type Frame struct {
	Packet gopacket.Packet
	Layer  *Layer
}

// Conversation derives a reassembly conversation key from the link-layer
// flow of the carrying frame. Frames without a link layer share key
// zero.
func (f Frame) Conversation() tipc.Conversation {
	link := f.Packet.LinkLayer()
	if link == nil {
		return 0
	}
	return tipc.Conversation(link.LinkFlow().FastHash())
}

// WalkFile reads a pcap capture file and invokes fn for every frame
// carrying TIPC. A non-nil error from fn stops the walk.
func WalkFile(path string, fn func(Frame) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("capture: could not read %q: %w", path, err)
	}
	src := gopacket.NewPacketSource(r, r.LinkType())
	for pkt := range src.Packets() {
		l, ok := pkt.Layer(LayerTypeTIPC).(*Layer)
		if !ok {
			continue
		}
		if err := fn(Frame{Packet: pkt, Layer: l}); err != nil {
			return err
		}
	}
	return nil
}
