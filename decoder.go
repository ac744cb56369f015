// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/packetlab/tipc/reassembly"
)

// Conversation identifies the endpoint pair a message was captured on.
// It scopes fragment groups: fragments with the same group id on
// different conversations reassemble independently. Hosts that decode a
// single flow may pass zero.
type Conversation uint64

// Result is the output of one top-level decode: the field tree, a
// one-line summary, the resolved endpoint identities for conversation
// tracking, and any non-fatal warnings.
type Result struct {
	Root        *Field
	Summary     string
	Source      Endpoint
	Destination Endpoint
	Warnings    []Warning
}

// Decoder decodes TIPC messages. It holds read-only configuration plus
// the fragment-group table shared across packets of a capture.
//
// Decode may be called concurrently for different buffers; the fragment
// table serializes inserts per group. Configuration is fixed once the
// decoder is built.
type Decoder struct {
	profile          Profile
	defragment       bool
	dissectPayload   bool
	heuristicFirst   bool
	streamReassembly bool
	log              *zap.Logger
	registry         *Registry
	frags            *reassembly.Store
}

// NewDecoder builds a decoder with the documented defaults: profile
// "all", reassembly and payload dissection enabled, heuristics last.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		profile:          ProfileAll,
		defragment:       true,
		dissectPayload:   true,
		streamReassembly: true,
		log:              zap.NewNop(),
		registry:         NewRegistry(),
		frags:            reassembly.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the sub-decoder registry consulted for payload bytes.
func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Profile returns the active compatibility profile.
func (d *Decoder) Profile() Profile {
	return d.profile
}

// state is the context of one top-level decode invocation. The recursion
// budget lives here, owned by the call chain, not by the buffer or by any
// process-wide variable.
type state struct {
	conv  Conversation
	depth int
	res   *Result

	srcSet  bool // endpoints resolved from a payload header
	nodeSet bool // at least a previous-node identity recorded
}

// Decode decodes one TIPC message region. The buffer must hold a whole
// message (datagram transports deliver one per packet; stream transports
// frame them first, see Framer). The returned Result is valid, possibly
// with warnings, even when an error is returned: a malformed message
// degrades to a partial tree, never to a crash.
func (d *Decoder) Decode(data []byte, conv Conversation) (*Result, error) {
	res := &Result{
		Root: &Field{Name: "tipc", Length: len(data)},
	}
	st := &state{conv: conv, res: res}
	err := d.dispatch(st, res.Root, data, 0, len(data))
	if err != nil {
		d.log.Debug("decode failed", zap.Error(err))
	}
	return res, err
}

// warn records a non-fatal diagnostic on the result and mirrors it to
// the logger.
func (d *Decoder) warn(st *state, kind WarningKind, off int, format string, args ...interface{}) {
	w := Warning{Kind: kind, Offset: off, Message: fmt.Sprintf(format, args...)}
	st.res.Warnings = append(st.res.Warnings, w)
	d.log.Debug("decode warning", zap.Int("offset", off), zap.String("message", w.Message))
}

// dispatch is the recursive entry point: it resolves version and user
// from word 0 and routes to the matching sub-decoder. Bundles,
// reassembled buffers and tunnelled changeover messages re-enter here.
// The depth counter pairs its decrement with every return path.
func (d *Decoder) dispatch(st *state, parent *Field, buf []byte, off, length int) error {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > MaxRecursionDepth {
		d.warn(st, WarnDepthExceeded, off, "max recursion depth reached")
		parent.Add(&Field{
			Name:    "excessive nesting",
			Offset:  off,
			Length:  length,
			Display: "max recursion depth reached",
		})
		return nil
	}

	v, err := newView(buf, off, length)
	if err != nil {
		return err
	}

	// The legacy configuration protocol kept user id 7 across the v1 to
	// v2 transition; on the wire it is always a v2 link protocol message
	// regardless of the version bits. The override is mandatory for
	// correct routing.
	version := v.hdr.Version
	if v.hdr.User == UserLinkProtocol {
		version = Version2
	}

	msg := parent.Add(&Field{
		Name:   "Transparent Inter Process Communication",
		Offset: off,
		Length: v.len(),
	})

	switch version {
	case Version1:
		err = d.decodeV1(st, v, msg)
	case Version2:
		err = d.decodeV2(st, v, msg)
	default:
		d.warn(st, WarnStructural, off, "unsupported TIPC version %d", version)
		msg.AddBytes("data", off, v.len(), buf[off:v.end])
		msg.Display = version.String()
	}
	if st.depth == 1 {
		st.res.Summary = msg.Display
	}
	return err
}

// decodeV1 decodes the common v1 word 0..2 region and branches on user
// into payload versus internal protocol decoding.
func (d *Decoder) decodeV1(st *state, v *view, msg *Field) error {
	v.datatype = isV1Data(v.hdr.User)
	if err := d.decodeWord0(st, v, msg); err != nil {
		return err
	}
	if v.datatype {
		return d.decodeV1Data(st, v, msg)
	}
	return d.decodeV1Internal(st, v, msg)
}

// decodeV2 branches on membership of the user id in the payload set.
func (d *Decoder) decodeV2(st *state, v *view, msg *Field) error {
	v.datatype = isV2Data(v.hdr.User)
	if err := d.decodeWord0(st, v, msg); err != nil {
		return err
	}
	if v.datatype {
		return d.decodeV2Data(st, v, msg)
	}
	return d.decodeV2Internal(st, v, msg)
}

// decodeWord0 emits the common first-word fields. The four bits below
// the header size are reserved in v1; v2 repurposes them as droppable and
// SYN flags, but only on payload messages.
func (d *Decoder) decodeWord0(st *state, v *view, msg *Field) error {
	w0 := binary.BigEndian.Uint32(v.buf[v.off:])
	off := v.off
	version := v.hdr.Version

	msg.AddUint("version", off, 4, uint32(version))
	msg.AddString("user", off, 4, uint32(v.hdr.User), UserName(effectiveVersion(v), v.hdr.User))
	msg.AddUint("header size", off, 4, uint32(v.hdr.HdrWords))
	if version == Version2 {
		v.hdr.NonSequenced = flag(w0, NonSequencedBit)
		msg.AddBool("non-sequenced", off, 4, v.hdr.NonSequenced)
		if v.datatype {
			v.hdr.DestDroppable = flag(w0, DestDropBit)
			v.hdr.SrcDroppable = flag(w0, SrcDropBit)
			v.hdr.Syn = flag(w0, SynBit)
			msg.AddBool("destination droppable", off, 4, v.hdr.DestDroppable)
			msg.AddBool("source droppable", off, 4, v.hdr.SrcDroppable)
			msg.AddBool("connection request", off, 4, v.hdr.Syn)
		}
	} else {
		msg.AddHex("unused", off, 4, bits(w0, 17, 0xf))
	}
	msg.AddUint("message size", off, 4, uint32(v.hdr.MsgSize))
	return nil
}

// effectiveVersion returns the version used for symbolic rendering,
// honoring the user 7 override.
func effectiveVersion(v *view) Version {
	if v.hdr.User == UserLinkProtocol {
		return Version2
	}
	return v.hdr.Version
}

// summary sets the one-line message summary shown for this message.
func (d *Decoder) summary(st *state, v *view, msg *Field, text string) {
	msg.Display = fmt.Sprintf("%s, %s: %s",
		effectiveVersion(v), UserName(effectiveVersion(v), v.hdr.User), text)
}

// recordNode notes a previous-node identity when no payload header has
// resolved full endpoints yet.
func (st *state) recordNode(prev Address) {
	if st.srcSet || st.nodeSet {
		return
	}
	st.nodeSet = true
	st.res.Source = Endpoint{Node: prev}
}

// recordEndpoints resolves the conversation endpoints from a payload
// header. The first payload message of a top-level decode wins.
func (st *state) recordEndpoints(src, dst Endpoint) {
	if st.srcSet {
		return
	}
	st.srcSet = true
	st.res.Source = src
	st.res.Destination = dst
}

// align4 rounds n up to the next 4-byte boundary, the wire alignment of
// bundled messages.
func align4(n int) int {
	return (n + 3) &^ 3
}
