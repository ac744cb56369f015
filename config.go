// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the file-backed configuration surface of the decoder. It is
// consumed, not owned, by the core: hosts load it once per run and apply
// it through Options; nothing mutates it mid-decode.
type Config struct {
	// Defragment reassembles fragmented and segmented messages.
	Defragment bool `toml:"defragment"`
	// DissectPayload hands payload bytes to registered sub-decoders.
	DissectPayload bool `toml:"dissect_payload"`
	// TryHeuristicFirst consults heuristic sub-decoders before the
	// exact-match tables.
	TryHeuristicFirst bool `toml:"try_heuristic_first"`
	// CompatibilityProfile is one of "all", "1.6" or "1.7".
	CompatibilityProfile string `toml:"compatibility_profile"`
	// StreamReassembly frames stream transports into whole PDUs.
	StreamReassembly bool `toml:"stream_reassembly"`
}

// DefaultConfig returns the documented defaults: reassembly and payload
// dissection on, heuristics last, profile "all".
func DefaultConfig() Config {
	return Config{
		Defragment:           true,
		DissectPayload:       true,
		TryHeuristicFirst:    false,
		CompatibilityProfile: "all",
		StreamReassembly:     true,
	}
}

// LoadConfig reads a TOML configuration file. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("tipc: could not load config %q: %w", path, err)
	}
	if _, ok := ParseProfile(cfg.CompatibilityProfile); !ok {
		return cfg, fmt.Errorf("tipc: unknown compatibility profile %q", cfg.CompatibilityProfile)
	}
	return cfg, nil
}

// Options converts the configuration into decoder options.
func (c Config) Options() []Option {
	profile, _ := ParseProfile(c.CompatibilityProfile)
	return []Option{
		WithDefragment(c.Defragment),
		WithPayloadDissection(c.DissectPayload),
		WithHeuristicFirst(c.TryHeuristicFirst),
		WithProfile(profile),
		WithStreamReassembly(c.StreamReassembly),
	}
}
