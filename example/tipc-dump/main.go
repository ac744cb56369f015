// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tipc-dump decodes TIPC messages from pcap capture files and
// prints one summary line per message, or the whole field tree with -v.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/packetlab/tipc"
	"github.com/packetlab/tipc/capture"
)

func main() {
	var (
		configPath string
		profile    string
		noDefrag   bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "tipc-dump [flags] capture.pcap...",
		Short: "decode TIPC messages from pcap captures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := tipc.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = tipc.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if profile != "" {
				cfg.CompatibilityProfile = profile
			}
			if noDefrag {
				cfg.Defragment = false
			}
			if _, ok := tipc.ParseProfile(cfg.CompatibilityProfile); !ok {
				return fmt.Errorf("unknown compatibility profile %q", cfg.CompatibilityProfile)
			}

			level := zapcore.InfoLevel
			if verbose {
				level = zapcore.DebugLevel
			}
			log, err := tipc.NewLogger(tipc.LogConfig{Level: level})
			if err != nil {
				return err
			}
			defer log.Sync()

			dec := tipc.NewDecoder(append(cfg.Options(), tipc.WithLogger(log))...)

			// Files decode concurrently; output is serialized per message.
			var mu sync.Mutex
			var g errgroup.Group
			for _, path := range args {
				g.Go(func() error {
					return capture.WalkFile(path, func(fr capture.Frame) error {
						res, err := dec.Decode(fr.Layer.Raw, fr.Conversation())
						mu.Lock()
						defer mu.Unlock()
						if err != nil {
							log.Warn("message decode failed",
								zap.String("file", path), zap.Error(err))
							return nil
						}
						fmt.Printf("%s  %s -> %s  %s\n",
							path, res.Source, res.Destination, res.Summary)
						if verbose {
							fmt.Print(res.Root.Dump())
						}
						for _, w := range res.Warnings {
							fmt.Printf("  warning: %s\n", w)
						}
						return nil
					})
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML decoder configuration file")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "compatibility profile: all, 1.6 or 1.7")
	cmd.Flags().BoolVar(&noDefrag, "no-defrag", false, "disable fragment reassembly")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the full field tree per message")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
