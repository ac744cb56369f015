// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetlab/tipc/internal/testutil"
)

// pubRecord renders one publication record of the given stride in words.
// Words beyond the five baseline fields are filled with a marker value.
func pubRecord(nameType, lower, upper, ref, key uint32, stride int) []byte {
	out := make([]byte, stride*4)
	for _, w := range []struct {
		i int
		v uint32
	}{{0, nameType}, {1, lower}, {2, upper}, {3, ref}, {4, key}} {
		binary.BigEndian.PutUint32(out[w.i*4:], w.v)
	}
	for i := 5; i < stride; i++ {
		binary.BigEndian.PutUint32(out[i*4:], 0xdeadbeef)
	}
	return out
}

func nameDistMsg(itemSize uint32, records []byte) []byte {
	return testutil.NewMsg(2, uint8(UserNameDistributor), 10).
		MsgType(MTypePublication).
		SetWord(9, itemSize<<24).
		Payload(records).Bytes()
}

func TestNameTableZeroItemSizeUsesFiveWordRecords(t *testing.T) {
	var recs []byte
	for i := uint32(0); i < 3; i++ {
		recs = append(recs, pubRecord(1000+i, i*10, i*10+9, 77+i, 42, 5)...)
	}
	res, err := NewDecoder().Decode(nameDistMsg(0, recs), 0)
	require.NoError(t, err)

	pubs := res.Root.FindAll("publication")
	require.Len(t, pubs, 3)
	assert.Equal(t, uint32(1001), pubs[1].Find("port name type").Value)
	assert.Equal(t, uint32(10), pubs[1].Find("lower bound").Value)
	assert.Equal(t, uint32(19), pubs[1].Find("upper bound").Value)
	assert.Nil(t, pubs[1].Find("owner processor"))
	assert.Contains(t, res.Summary, "(3 records)")
	assert.Empty(t, res.Warnings)
}

func TestNameTableTrailingBytesStayUnconsumed(t *testing.T) {
	recs := pubRecord(1, 0, 0, 1, 1, 5)
	recs = append(recs, pubRecord(2, 5, 9, 2, 2, 5)...)
	recs = append(recs, 0xaa, 0xbb, 0xcc) // 3 stray bytes

	res, err := NewDecoder().Decode(nameDistMsg(0, recs), 0)
	require.NoError(t, err)
	assert.Len(t, res.Root.FindAll("publication"), 2)
	assert.Contains(t, res.Summary, "(2 records)")
}

func TestNameTableSevenWordRecords(t *testing.T) {
	rec := pubRecord(4711, 100, 200, 9, 1, 7)
	// Word 5 is the owner node, word 6 holds distribution and scope.
	binary.BigEndian.PutUint32(rec[5*4:], 0x01002001) // 1.2.1
	binary.BigEndian.PutUint32(rec[6*4:], 0x0302)     // dist 3, scope 2

	res, err := NewDecoder().Decode(nameDistMsg(7, rec), 0)
	require.NoError(t, err)

	pub := res.Root.Find("publication")
	require.NotNil(t, pub)
	assert.Equal(t, Address(0x01002001), pub.Find("owner processor").Value)
	assert.Equal(t, uint32(3), pub.Find("distribution").Value)
	assert.Equal(t, uint32(2), pub.Find("scope").Value)
	assert.Empty(t, res.Warnings)
}

func TestNameTableOversizedStrideWarnsOnce(t *testing.T) {
	recs := append(pubRecord(1, 0, 0, 1, 1, 9), pubRecord(2, 0, 0, 2, 2, 9)...)

	res, err := NewDecoder().Decode(nameDistMsg(9, recs), 0)
	require.NoError(t, err)

	pubs := res.Root.FindAll("publication")
	require.Len(t, pubs, 2)
	for _, p := range pubs {
		extra := p.Find("unspecified")
		require.NotNil(t, extra)
		assert.Equal(t, 8, extra.Length)
	}
	var revWarns int
	for _, w := range res.Warnings {
		if w.Kind == WarnUnknownRevision {
			revWarns++
		}
	}
	assert.Equal(t, 1, revWarns)
}

func TestNameTableStrictProfilePinsStride(t *testing.T) {
	// Two five-word records; a 1.7 decoder reads them as one seven-word
	// record and leaves the remainder unconsumed.
	recs := append(pubRecord(1, 0, 0, 1, 1, 5), pubRecord(2, 0, 0, 2, 2, 5)...)

	res, err := NewDecoder(WithProfile(ProfileV16)).Decode(nameDistMsg(7, recs), 0)
	require.NoError(t, err)
	assert.Len(t, res.Root.FindAll("publication"), 2)

	res, err = NewDecoder(WithProfile(ProfileV17)).Decode(nameDistMsg(0, recs), 0)
	require.NoError(t, err)
	assert.Len(t, res.Root.FindAll("publication"), 1)
}

func TestV1NameDistributorAlwaysFiveWords(t *testing.T) {
	recs := pubRecord(321, 1, 1, 5, 6, 5)
	data := testutil.NewMsg(1, uint8(UserV1NameDistributor), 6).
		MsgType(MTypePublication).
		Payload(recs).Bytes()

	res, err := NewDecoder().Decode(data, 0)
	require.NoError(t, err)
	pub := res.Root.Find("publication")
	require.NotNil(t, pub)
	assert.Equal(t, uint32(321), pub.Find("port name type").Value)
	assert.Nil(t, pub.Find("owner processor"))
}
