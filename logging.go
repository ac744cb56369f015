// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tipc

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LogConfig configures the diagnostic logger built by NewLogger.
type LogConfig struct {
	// Level is the minimum level emitted.
	Level zapcore.Level `toml:"level"`
}

// NewLogger builds a console logger for decode diagnostics, colorized
// when stderr is a terminal. The decoder itself defaults to a no-op
// logger; hosts that want mirrored warnings pass one in via WithLogger.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	if term.IsTerminal(int(os.Stderr.Fd())) {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.Level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("tipc: failed to initialize logger: %w", err)
	}
	return logger, nil
}
