// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package capture integrates the TIPC decoder with gopacket: it
// registers a TIPC layer on the Ethernet type TIPC frames are carried
// under and provides helpers for walking pcap files.
package capture

import (
	"fmt"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/packetlab/tipc"
)

// EthernetTypeTIPC is the EtherType assigned to TIPC.
const EthernetTypeTIPC = 0x88ca

// LayerTypeTIPC is the registered gopacket layer type for TIPC.
var LayerTypeTIPC = gopacket.RegisterLayerType(
	1471,
	gopacket.LayerTypeMetadata{Name: "TIPC", Decoder: gopacket.DecodeFunc(decodeTIPC)},
)

func init() {
	layers.EthernetTypeMetadata[EthernetTypeTIPC] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodeTIPC),
		Name:       "TIPC",
		LayerType:  LayerTypeTIPC,
	}
}

// Layer is one TIPC message region inside a captured frame. It carries
// only the parsed first word; full field decode stays with
// tipc.Decoder, which hosts run on Raw.
type Layer struct {
	layers.BaseLayer
	Header tipc.RawHeader

	// Raw is the whole message region, header and payload, bounded by
	// the declared message size.
	Raw []byte
}

// LayerType returns LayerTypeTIPC.
func (l *Layer) LayerType() gopacket.LayerType { return LayerTypeTIPC }

// CanDecode returns the layer class this decoder handles.
func (l *Layer) CanDecode() gopacket.LayerClass { return LayerTypeTIPC }

// NextLayerType returns the type of the bytes after the TIPC header.
func (l *Layer) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// DecodeFromBytes parses the TIPC first word and carves the message
// region out of data.
func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	hdr, err := tipc.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("capture: not a TIPC message: %w", err)
	}
	end := hdr.MsgSize
	if end > len(data) {
		df.SetTruncated()
		end = len(data)
	}
	hdrLen := hdr.HdrSize()
	if hdrLen > end {
		hdrLen = end
	}
	l.Header = hdr
	l.Raw = data[:end]
	l.BaseLayer = layers.BaseLayer{
		Contents: data[:hdrLen],
		Payload:  data[hdrLen:end],
	}
	return nil
}

func decodeTIPC(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	return p.NextDecoder(l.NextLayerType())
}
