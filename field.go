// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"fmt"
	"strings"
)

// Field is one decoded record in the output tree: a name, the byte range
// it was decoded from, the semantic value and a rendered display string.
// Byte offsets are relative to the buffer the enclosing message was
// decoded from; a reassembled message starts a fresh offset space rooted
// at its own synthetic field.
type Field struct {
	Name    string
	Offset  int
	Length  int
	Value   interface{}
	Display string
	Fields  []*Field
}

// Add appends a child field and returns it.
func (f *Field) Add(child *Field) *Field {
	f.Fields = append(f.Fields, child)
	return child
}

// AddUint appends a numeric child field rendered in decimal.
func (f *Field) AddUint(name string, off, length int, v uint32) *Field {
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  length,
		Value:   v,
		Display: fmt.Sprintf("%d", v),
	})
}

// AddHex appends a numeric child field rendered in hex.
func (f *Field) AddHex(name string, off, length int, v uint32) *Field {
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  length,
		Value:   v,
		Display: fmt.Sprintf("0x%x", v),
	})
}

// AddBool appends a single-bit flag field.
func (f *Field) AddBool(name string, off, length int, v bool) *Field {
	set := "Not set"
	if v {
		set = "Set"
	}
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  length,
		Value:   v,
		Display: set,
	})
}

// AddAddr appends a network address field in zone.subnetwork.processor
// form.
func (f *Field) AddAddr(name string, off int, a Address) *Field {
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  4,
		Value:   a,
		Display: a.String(),
	})
}

// AddString appends a child field with a pre-rendered display value.
func (f *Field) AddString(name string, off, length int, v uint32, display string) *Field {
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  length,
		Value:   v,
		Display: display,
	})
}

// AddBytes appends an opaque byte-range field.
func (f *Field) AddBytes(name string, off, length int, b []byte) *Field {
	return f.Add(&Field{
		Name:    name,
		Offset:  off,
		Length:  length,
		Value:   b,
		Display: fmt.Sprintf("%d bytes", length),
	})
}

// Find returns the first field with the given name in a depth-first walk
// of this subtree, or nil. Intended for tests and simple hosts; rendering
// frameworks walk Fields directly.
func (f *Field) Find(name string) *Field {
	if f.Name == name {
		return f
	}
	for _, child := range f.Fields {
		if got := child.Find(name); got != nil {
			return got
		}
	}
	return nil
}

// FindAll returns every field with the given name in depth-first order.
func (f *Field) FindAll(name string) []*Field {
	var out []*Field
	if f.Name == name {
		out = append(out, f)
	}
	for _, child := range f.Fields {
		out = append(out, child.FindAll(name)...)
	}
	return out
}

// Dump renders the subtree as indented text, one field per line.
func (f *Field) Dump() string {
	var sb strings.Builder
	f.dump(&sb, 0)
	return sb.String()
}

func (f *Field) dump(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
	if f.Display != "" {
		fmt.Fprintf(sb, "%s: %s\n", f.Name, f.Display)
	} else {
		fmt.Fprintf(sb, "%s\n", f.Name)
	}
	for _, child := range f.Fields {
		child.dump(sb, depth+1)
	}
}

// WarningKind classifies a non-fatal decode diagnostic.
type WarningKind uint8

const (
	// WarnStructural marks wire-format inconsistencies such as a bundle
	// sub-message whose declared size exceeds the remaining bytes.
	WarnStructural WarningKind = iota
	// WarnDepthExceeded marks a branch cut off by the recursion ceiling.
	WarnDepthExceeded
	// WarnUnknownRevision marks bytes a known protocol revision does not
	// specify, such as name-distribution records wider than seven words.
	WarnUnknownRevision
)

// Warning is a non-fatal diagnostic attached to a decode result. Decoding
// continues past every warning; only a short buffer fails a message.
type Warning struct {
	Kind    WarningKind
	Offset  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%d] %s", w.Offset, w.Message)
}
