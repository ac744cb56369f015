// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tipc.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaultsForAbsentKeys(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `defragment = false`))
	require.NoError(t, err)

	assert.False(t, cfg.Defragment)
	assert.True(t, cfg.DissectPayload)
	assert.False(t, cfg.TryHeuristicFirst)
	assert.Equal(t, "all", cfg.CompatibilityProfile)
	assert.True(t, cfg.StreamReassembly)
}

func TestLoadConfigFullFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
defragment = false
dissect_payload = false
try_heuristic_first = true
compatibility_profile = "1.7"
stream_reassembly = false
`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Defragment:           false,
		DissectPayload:       false,
		TryHeuristicFirst:    true,
		CompatibilityProfile: "1.7",
		StreamReassembly:     false,
	}, cfg)
}

func TestLoadConfigRejectsUnknownProfile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `compatibility_profile = "1.5"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1.5")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestConfigOptionsApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defragment = false
	cfg.CompatibilityProfile = "1.6"

	d := NewDecoder(cfg.Options()...)
	assert.False(t, d.defragment)
	assert.Equal(t, ProfileV16, d.profile)
	assert.True(t, d.dissectPayload)
}

func TestParseProfile(t *testing.T) {
	for in, want := range map[string]Profile{
		"all": ProfileAll,
		"1.6": ProfileV16,
		"1.7": ProfileV17,
	} {
		got, ok := ParseProfile(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseProfile("2.0")
	assert.False(t, ok)
}
