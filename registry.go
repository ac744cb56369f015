// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"sync"
)

// PayloadContext carries the routing context a payload sub-decoder
// receives alongside the payload bytes.
type PayloadContext struct {
	Version Version
	User    User
	MsgType uint32

	// PortNameType is the port name type from the long header form.
	// Valid only when HasPortNameType is set.
	PortNameType    uint32
	HasPortNameType bool

	Source      Endpoint
	Destination Endpoint

	// Offset is the byte offset of the payload within the buffer the
	// enclosing message was decoded from.
	Offset int

	// Tree is the field subtree the sub-decoder may attach findings to.
	Tree *Field
}

// PayloadDecoder inspects payload bytes and reports whether it accepted
// them. A decoder that returns false must not have attached fields.
type PayloadDecoder func(payload []byte, ctx PayloadContext) bool

// Registry dispatches payload bytes to externally registered
// sub-decoders. Lookup order is: heuristics first when configured so,
// then the user-id table, then the port-name-type table, then heuristics
// if not tried already, and finally an opaque-bytes fallback. Exactly one
// path runs per payload; the first decoder that accepts terminates the
// search.
//
// A Registry is safe for concurrent use; registration is expected at
// start-up but may happen at any time.
type Registry struct {
	mu         sync.RWMutex
	byUser     map[User]PayloadDecoder
	byNameType map[uint32]PayloadDecoder
	heuristics []PayloadDecoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser:     make(map[User]PayloadDecoder),
		byNameType: make(map[uint32]PayloadDecoder),
	}
}

// RegisterUser binds a sub-decoder to a payload user id. A later
// registration for the same id replaces the earlier one.
func (r *Registry) RegisterUser(u User, fn PayloadDecoder) {
	r.mu.Lock()
	r.byUser[u] = fn
	r.mu.Unlock()
}

// RegisterNameType binds a sub-decoder to a port name type.
func (r *Registry) RegisterNameType(nameType uint32, fn PayloadDecoder) {
	r.mu.Lock()
	r.byNameType[nameType] = fn
	r.mu.Unlock()
}

// RegisterHeuristic appends a heuristic sub-decoder. Heuristics run in
// registration order; the first match wins.
func (r *Registry) RegisterHeuristic(fn PayloadDecoder) {
	r.mu.Lock()
	r.heuristics = append(r.heuristics, fn)
	r.mu.Unlock()
}

// dispatch routes payload bytes per the configured order and falls back
// to rendering them as opaque data. It reports whether anything beyond
// the fallback accepted the payload.
func (r *Registry) dispatch(payload []byte, ctx PayloadContext, heuristicFirst bool) bool {
	r.mu.RLock()
	byUser := r.byUser[ctx.User]
	var byName PayloadDecoder
	if ctx.HasPortNameType {
		byName = r.byNameType[ctx.PortNameType]
	}
	heuristics := r.heuristics
	r.mu.RUnlock()

	if heuristicFirst && r.tryHeuristics(heuristics, payload, ctx) {
		return true
	}
	if byUser != nil && byUser(payload, ctx) {
		return true
	}
	if byName != nil && byName(payload, ctx) {
		return true
	}
	if !heuristicFirst && r.tryHeuristics(heuristics, payload, ctx) {
		return true
	}
	ctx.Tree.AddBytes("data", ctx.Offset, len(payload), payload)
	return false
}

func (r *Registry) tryHeuristics(hs []PayloadDecoder, payload []byte, ctx PayloadContext) bool {
	for _, h := range hs {
		if h(payload, ctx) {
			return true
		}
	}
	return false
}
