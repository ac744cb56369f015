// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"go.uber.org/zap"
)

// Option configures some aspect of a Decoder (profile, reassembly,
// payload dissection, ...).
type Option func(d *Decoder)

// WithProfile selects the compatibility profile used for ambiguous v2
// header variants. The default is ProfileAll.
func WithProfile(p Profile) Option {
	return func(d *Decoder) {
		d.profile = p
	}
}

// WithDefragment enables or disables fragment reassembly. When disabled,
// fragments are surfaced individually as opaque payload bytes with no
// cross-fragment semantics. The default is enabled.
func WithDefragment(on bool) Option {
	return func(d *Decoder) {
		d.defragment = on
	}
}

// WithPayloadDissection enables or disables handing payload bytes to the
// registered sub-decoders. When disabled every payload is rendered as
// opaque bytes. The default is enabled.
func WithPayloadDissection(on bool) Option {
	return func(d *Decoder) {
		d.dissectPayload = on
	}
}

// WithHeuristicFirst makes the registry try heuristic sub-decoders before
// the exact-match tables. The default is exact matches first.
func WithHeuristicFirst(on bool) Option {
	return func(d *Decoder) {
		d.heuristicFirst = on
	}
}

// WithStreamReassembly enables or disables framing of stream transports
// into whole PDUs (see Framer). The default is enabled.
func WithStreamReassembly(on bool) Option {
	return func(d *Decoder) {
		d.streamReassembly = on
	}
}

// WithLogger sets the logger decode diagnostics are mirrored to. The
// default is a no-op logger; warnings are always recorded in the decode
// result regardless.
func WithLogger(log *zap.Logger) Option {
	return func(d *Decoder) {
		if log != nil {
			d.log = log
		}
	}
}

// WithRegistry sets the sub-decoder registry consulted for payload
// bytes. Decoders sharing a registry see the same registrations.
func WithRegistry(r *Registry) Option {
	return func(d *Decoder) {
		if r != nil {
			d.registry = r
		}
	}
}
