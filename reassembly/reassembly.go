// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reassembly provides an out-of-order fragment store for
// reassembling segmented messages. It supports two insertion modes over
// the same group abstraction: sequenced append, where fragments arrive in
// order and the expected count is announced separately, and indexed
// insertion, where each fragment carries an explicit 1-based index and a
// last-fragment marker closes the group.
//
// Groups that never complete are simply retained; there is no flush, no
// timeout and no error for an abandoned group.
package reassembly

import (
	"sync"
)

// Key identifies one fragment group: the conversation the fragments were
// captured on plus the group id carried by the fragments themselves.
//
// The v1 segmentation group id is derived from a link selector and is not
// guaranteed unique per link; two interleaved segment streams with the
// same selector on the same conversation will collide. That matches the
// wire format's own keying and is an accepted limitation, not a defect to
// repair here.
type Key struct {
	Conversation uint64
	Group        uint32
}

// group accumulates the fragments of one key. Inserts and completion for
// a single group are serialized by the store; fragments of different
// groups never block each other.
type group struct {
	mu      sync.Mutex
	frags   [][]byte
	have    int
	total   int // expected fragment count; 0 while unknown
	sawLast bool
	done    bool
}

// Store is a table of live fragment groups. At most one group exists per
// key: concurrent fragments for the same key append to the same group.
type Store struct {
	mu     sync.Mutex
	groups map[Key]*group
}

// New returns an empty store.
func New() *Store {
	return &Store{groups: make(map[Key]*group)}
}

// lookup returns the live group for k, creating it on first use.
func (s *Store) lookup(k Key) *group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[k]
	if !ok {
		g = &group{}
		s.groups[k] = g
	}
	return g
}

// drop removes a completed group from the table.
func (s *Store) drop(k Key) {
	s.mu.Lock()
	delete(s.groups, k)
	s.mu.Unlock()
}

// SetTotal announces the expected fragment count for a sequenced group.
// The count is known only to the caller (for v1 segmentation it is
// computed from the first segment's embedded total length) and cannot be
// inferred fragment by fragment. Calling it again with a different value
// keeps the first announcement.
func (s *Store) SetTotal(k Key, n int) {
	if n <= 0 {
		return
	}
	g := s.lookup(k)
	g.mu.Lock()
	if g.total == 0 {
		g.total = n
	}
	g.mu.Unlock()
}

// AddSequenced appends a fragment at the next free index of group k and
// returns the reassembled buffer once the announced total is reached.
// The fragment bytes are copied; the caller's buffer is not retained.
func (s *Store) AddSequenced(k Key, data []byte) ([]byte, bool) {
	g := s.lookup(k)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil, false
	}
	g.frags = append(g.frags, cloneBytes(data))
	g.have++
	if g.total == 0 || g.have < g.total {
		return nil, false
	}
	return s.finish(k, g), true
}

// AddIndexed stores a fragment at an explicit zero-based index and
// returns the reassembled buffer once the group is complete. Indices need
// not arrive contiguously; the group completes only when a last fragment
// has been seen and every stored slot up to the highest index is present.
// A fragment stored above the last fragment's index blocks completion
// until the gap below it is filled, and its bytes stay out of the
// reassembled buffer. The fragment bytes are copied; the caller's buffer
// is not retained.
func (s *Store) AddIndexed(k Key, index int, last bool, data []byte) ([]byte, bool) {
	if index < 0 {
		return nil, false
	}
	g := s.lookup(k)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil, false
	}
	for len(g.frags) <= index {
		g.frags = append(g.frags, nil)
	}
	if g.frags[index] == nil {
		g.frags[index] = cloneBytes(data)
		g.have++
	}
	if last {
		g.sawLast = true
		g.total = index + 1
	}
	if !g.sawLast || g.have < g.total {
		return nil, false
	}
	// Slots only exist for stored indices, so a nil anywhere is a hole,
	// including holes below a stray fragment beyond the last index.
	for _, f := range g.frags {
		if f == nil {
			return nil, false
		}
	}
	return s.finish(k, g), true
}

// finish concatenates the stored ranges in index order and retires the
// group. Bytes stored past the last fragment's index are dropped.
// Caller holds g.mu.
func (s *Store) finish(k Key, g *group) []byte {
	frags := g.frags
	if g.total > 0 && g.total < len(frags) {
		frags = frags[:g.total]
	}
	n := 0
	for _, f := range frags {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range frags {
		out = append(out, f...)
	}
	g.done = true
	g.frags = nil
	s.drop(k)
	return out
}

// Pending returns the number of groups still waiting for fragments.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

// Discard forgets an incomplete group, if one exists for k.
func (s *Store) Discard(k Key) {
	s.drop(k)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
