// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramerSplitsBackToBackMessages(t *testing.T) {
	m1 := payloadMsg(1, 2, []byte("first"))
	m2 := payloadMsg(3, 4, []byte("second message"))
	m3 := payloadMsg(5, 6, nil)
	stream := bytes.NewReader(bytes.Join([][]byte{m1, m2, m3}, nil))

	f := NewFramer(stream)
	for i, want := range [][]byte{m1, m2, m3} {
		got, err := f.Next()
		require.NoError(t, err, "message %d", i)
		assert.Equal(t, want, got, "message %d", i)
	}
	_, err := f.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFramerMidMessageEOF(t *testing.T) {
	m := payloadMsg(1, 2, []byte("cut short"))
	f := NewFramer(bytes.NewReader(m[:len(m)-3]))
	_, err := f.Next()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestFramerRejectsUndersizedLength(t *testing.T) {
	// Size field of 2 can never hold even word 0.
	f := NewFramer(bytes.NewReader([]byte{0x40, 0xc0, 0x00, 0x02}))
	_, err := f.Next()
	assert.Error(t, err)
}

func TestDecodeStreamEmitsPerMessage(t *testing.T) {
	m1 := payloadMsg(10, 20, []byte("aa"))
	m2 := payloadMsg(30, 40, []byte("bb"))
	stream := bytes.NewReader(append(append([]byte{}, m1...), m2...))

	var results []*Result
	err := NewDecoder().DecodeStream(stream, 1, func(r *Result, err error) {
		require.NoError(t, err)
		results = append(results, r)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint32(10), results[0].Source.Port)
	assert.Equal(t, uint32(30), results[1].Source.Port)
}

func TestDecodeStreamReassemblyDisabledIsSingleRegion(t *testing.T) {
	m1 := payloadMsg(10, 20, []byte("aa"))
	m2 := payloadMsg(30, 40, []byte("bb"))
	stream := bytes.NewReader(append(append([]byte{}, m1...), m2...))

	var calls int
	d := NewDecoder(WithStreamReassembly(false))
	err := d.DecodeStream(stream, 1, func(r *Result, err error) {
		calls++
		require.NoError(t, err)
		assert.Equal(t, uint32(10), r.Source.Port)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDecodeStreamFramingErrorStopsLoop(t *testing.T) {
	m1 := payloadMsg(10, 20, []byte("aa"))
	stream := bytes.NewReader(append(append([]byte{}, m1...), 0x40, 0xc0))

	var calls int
	err := NewDecoder().DecodeStream(stream, 1, func(*Result, error) { calls++ })
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDecodeStreamEmptyInput(t *testing.T) {
	err := NewDecoder().DecodeStream(bytes.NewReader(nil), 0, func(*Result, error) {
		t.Fatal("emit on empty stream")
	})
	assert.NoError(t, err)

	err = NewDecoder(WithStreamReassembly(false)).
		DecodeStream(bytes.NewReader(nil), 0, func(*Result, error) {
			t.Fatal("emit on empty stream")
		})
	assert.NoError(t, err)
}
