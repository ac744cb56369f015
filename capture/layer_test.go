// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetlab/tipc"
	"github.com/packetlab/tipc/internal/testutil"
)

// tipcFrame wraps a TIPC message into an Ethernet frame.
func tipcFrame(t *testing.T, msg []byte) []byte {
	t.Helper()
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetType(EthernetTypeTIPC),
	}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&eth, gopacket.Payload(msg)))
	return buf.Bytes()
}

func payloadMsg(srcPort, dstPort uint32, payload []byte) []byte {
	return testutil.NewMsg(2, 0, 6).
		SetWord(4, srcPort).SetWord(5, dstPort).
		Payload(payload).Bytes()
}

func TestEthernetDispatchesToTIPCLayer(t *testing.T) {
	msg := payloadMsg(11, 22, []byte("hello tipc"))
	pkt := gopacket.NewPacket(tipcFrame(t, msg), layers.LayerTypeEthernet, gopacket.Default)

	l, ok := pkt.Layer(LayerTypeTIPC).(*Layer)
	require.True(t, ok, "no TIPC layer: %v", pkt.Layers())
	assert.Equal(t, msg, l.Raw)
	assert.Equal(t, 6, l.Header.HdrWords)
	assert.Equal(t, len(msg), l.Header.MsgSize)
	assert.Equal(t, msg[:24], l.LayerContents())
	assert.Equal(t, []byte("hello tipc"), l.LayerPayload())
}

func TestLayerBoundsRegionByDeclaredSize(t *testing.T) {
	msg := payloadMsg(1, 2, []byte("abc"))
	padded := append(append([]byte{}, msg...), 0xde, 0xad)

	var l Layer
	require.NoError(t, l.DecodeFromBytes(padded, gopacket.NilDecodeFeedback))
	assert.Equal(t, msg, l.Raw)
}

func TestLayerTruncatedFrame(t *testing.T) {
	msg := payloadMsg(1, 2, []byte("will be cut"))

	var l Layer
	require.NoError(t, l.DecodeFromBytes(msg[:len(msg)-4], gopacket.NilDecodeFeedback))
	assert.Len(t, l.Raw, len(msg)-4)
}

func TestLayerRejectsGarbage(t *testing.T) {
	var l Layer
	assert.Error(t, l.DecodeFromBytes([]byte{0xff, 0xff, 0xff, 0xff}, gopacket.NilDecodeFeedback))
	assert.Error(t, l.DecodeFromBytes([]byte{0x40}, gopacket.NilDecodeFeedback))
}

func TestLayerRawFeedsDecoder(t *testing.T) {
	msg := payloadMsg(77, 88, []byte("payload"))
	pkt := gopacket.NewPacket(tipcFrame(t, msg), layers.LayerTypeEthernet, gopacket.Default)
	l, ok := pkt.Layer(LayerTypeTIPC).(*Layer)
	require.True(t, ok)

	res, err := tipc.NewDecoder().Decode(l.Raw, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), res.Source.Port)
	assert.Equal(t, uint32(88), res.Destination.Port)
}

func writePcap(t *testing.T, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tipc.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for _, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

func TestWalkFileVisitsTIPCFramesOnly(t *testing.T) {
	m1 := payloadMsg(1, 2, []byte("one"))
	m2 := payloadMsg(3, 4, []byte("two"))
	arp := func() []byte {
		eth := layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			EthernetType: layers.EthernetTypeARP,
		}
		arp := layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   eth.SrcMAC,
			SourceProtAddress: []byte{10, 0, 0, 1},
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    []byte{10, 0, 0, 2},
		}
		buf := gopacket.NewSerializeBuffer()
		require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, &eth, &arp))
		return buf.Bytes()
	}()
	path := writePcap(t, tipcFrame(t, m1), arp, tipcFrame(t, m2))

	var seen [][]byte
	err := WalkFile(path, func(fr Frame) error {
		seen = append(seen, fr.Layer.Raw)
		assert.NotZero(t, fr.Conversation())
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, m1, seen[0])
	assert.Equal(t, m2, seen[1])
}

func TestWalkFileMissing(t *testing.T) {
	err := WalkFile(filepath.Join(t.TempDir(), "absent.pcap"), func(Frame) error {
		t.Fatal("callback on missing file")
		return nil
	})
	assert.Error(t, err)
}
