// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetlab/tipc/internal/testutil"
)

// accept returns a sub-decoder that accepts every payload and tags the
// tree with the given marker field.
func accept(marker string) PayloadDecoder {
	return func(payload []byte, ctx PayloadContext) bool {
		ctx.Tree.AddBytes(marker, ctx.Offset, len(payload), payload)
		return true
	}
}

func reject() PayloadDecoder {
	return func([]byte, PayloadContext) bool { return false }
}

func TestRegistryUserBeforeNameType(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterUser(UserDataNormal, accept("by-user"))
	d.Registry().RegisterNameType(42, accept("by-name"))

	data := testutil.NewMsg(2, uint8(UserDataNormal), 9).
		SetWord(4, 1).SetWord(5, 2).SetWord(8, 42).
		Payload([]byte("hello")).Bytes()
	res, err := d.Decode(data, 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Root.Find("by-user"))
	assert.Nil(t, res.Root.Find("by-name"))
}

func TestRegistryNameTypeWhenNoUserMatch(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterNameType(42, accept("by-name"))

	data := testutil.NewMsg(2, uint8(UserDataNormal), 9).
		SetWord(8, 42).Payload([]byte("hello")).Bytes()
	res, err := d.Decode(data, 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Root.Find("by-name"))
	assert.Nil(t, res.Root.Find("data"))
}

func TestRegistryNameTypeNeedsLongHeader(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterNameType(42, accept("by-name"))

	// Short form carries no port name type, so name-type dispatch must
	// not fire even if payload bytes happen to look right.
	data := payloadMsg(1, 2, []byte("hello"))
	res, err := d.Decode(data, 0)
	require.NoError(t, err)
	assert.Nil(t, res.Root.Find("by-name"))
	assert.NotNil(t, res.Root.Find("data"))
}

func TestRegistryHeuristicsLastByDefault(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterUser(UserDataNormal, accept("by-user"))
	d.Registry().RegisterHeuristic(accept("heuristic"))

	res, err := d.Decode(payloadMsg(1, 2, []byte("hello")), 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Root.Find("by-user"))
	assert.Nil(t, res.Root.Find("heuristic"))
}

func TestRegistryHeuristicFirst(t *testing.T) {
	d := NewDecoder(WithHeuristicFirst(true))
	d.Registry().RegisterUser(UserDataNormal, accept("by-user"))
	d.Registry().RegisterHeuristic(reject())
	d.Registry().RegisterHeuristic(accept("heuristic"))

	res, err := d.Decode(payloadMsg(1, 2, []byte("hello")), 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Root.Find("heuristic"))
	assert.Nil(t, res.Root.Find("by-user"))
}

func TestRegistryFallbackRendersOpaqueData(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterHeuristic(reject())

	res, err := d.Decode(payloadMsg(1, 2, []byte("opaque")), 0)
	require.NoError(t, err)
	f := res.Root.Find("data")
	require.NotNil(t, f)
	assert.Equal(t, 6, f.Length)
	assert.Equal(t, 24, f.Offset)
}

func TestRegistryContextCarriesEndpoints(t *testing.T) {
	var got PayloadContext
	d := NewDecoder()
	d.Registry().RegisterUser(UserDataNormal, func(p []byte, ctx PayloadContext) bool {
		got = ctx
		return true
	})

	_, err := d.Decode(payloadMsg(111, 222, []byte("x")), 0)
	require.NoError(t, err)
	assert.Equal(t, Version2, got.Version)
	assert.Equal(t, UserDataNormal, got.User)
	assert.Equal(t, uint32(111), got.Source.Port)
	assert.Equal(t, uint32(222), got.Destination.Port)
	assert.Equal(t, 24, got.Offset)
}

func TestRegistryLaterUserRegistrationReplaces(t *testing.T) {
	d := NewDecoder()
	d.Registry().RegisterUser(UserDataNormal, accept("first"))
	d.Registry().RegisterUser(UserDataNormal, accept("second"))

	res, err := d.Decode(payloadMsg(1, 2, []byte("x")), 0)
	require.NoError(t, err)
	assert.Nil(t, res.Root.Find("first"))
	assert.NotNil(t, res.Root.Find("second"))
}

func TestPayloadDissectionDisabled(t *testing.T) {
	d := NewDecoder(WithPayloadDissection(false))
	d.Registry().RegisterUser(UserDataNormal, accept("by-user"))

	payload := bytes.Repeat([]byte("z"), 10)
	res, err := d.Decode(payloadMsg(1, 2, payload), 0)
	require.NoError(t, err)
	assert.Nil(t, res.Root.Find("by-user"))
	f := res.Root.Find("data")
	require.NotNil(t, f)
	assert.Equal(t, 10, f.Length)
}
