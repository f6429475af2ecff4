package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gazer/internal/service"
	"gazer/internal/settings"
	"gazer/internal/statestore"

	"github.com/spf13/cobra"
)

var (
	dbPathFlag    string
	svc           *service.Service
	outputFlag    string
	absoluteFlag  bool
	autoPlayFlag  bool
	intervalFlag  float64
	randomFlag    bool
	autoSizeFlag  bool
	forgetFlag    string
	showStateFlag bool
)

func cliLogger(msg string) {
	log.Printf("[gazer-cli] %s", msg)
}

// parseSlot turns a 1-based slot argument into a preset slot index.
func parseSlot(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || !settings.ValidSlot(n-1) {
		return 0, fmt.Errorf("slot must be a number from 1 to %d", settings.PresetSlots)
	}
	return n - 1, nil
}

// NewRootCmd creates the root command for the CLI application.
// It takes a function `getService` which is responsible for opening the
// settings store and returning the service. This allows tests to inject
// test-specific instances.
func NewRootCmd(getService func(dbPath string, logger settings.LoggerFunc) (*service.Service, error)) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "gazer-cli",
		Short: "Gazer CLI - inspect and maintain .gzpl playlists",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			svc, err = getService(dbPathFlag, cliLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize service: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if svc != nil && svc.Store != nil {
				svc.Store.Close()
			}
		},
	}

	// Show playlist
	showCmd := &cobra.Command{
		Use:   "show [playlist]",
		Short: "Show a playlist's items and how each one resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.InspectPlaylist(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Name:     %s\n", res.Name)
			cmd.Printf("Version:  %s\n", res.Version)
			cmd.Printf("Created:  %s\n", service.FormatTime(res.Created))
			cmd.Printf("Modified: %s\n", service.FormatTime(res.Modified))
			p := res.Playback
			cmd.Printf("Playback: autoplay=%t interval=%.1fs randomness=%.0f%% random=%t autosize=%t\n",
				p.AutoPlayEnabled, p.AutoPlayInterval, p.AutoPlayRandomness, p.RandomPlayback, p.AutoSizeWindow)
			cmd.Printf("Items:    %d loaded, %d missing\n", len(res.Items), len(res.Skipped))

			index := 0
			for _, r := range res.Resolutions {
				if r.Resolved == "" {
					cmd.Printf("  -   [missing]  %s\n", r.Stored)
					continue
				}
				cmd.Printf("  %-3d [%s] %s\n", index+1, r.Rule, r.Resolved)
				if showStateFlag {
					if st, ok := res.Store.Restore(statestore.Key{Path: r.Resolved, Index: index}); ok {
						cmd.Printf("        %s\n", service.DescribeState(st))
					} else {
						cmd.Printf("        (fit to window)\n")
					}
				}
				index++
			}
			return nil
		},
	}
	showCmd.Flags().BoolVarP(&showStateFlag, "state", "s", false, "Print each item's saved view state")
	rootCmd.AddCommand(showCmd)

	// Create playlist
	createCmd := &cobra.Command{
		Use:   "create [out.gzpl] [image|directory...]",
		Short: "Create a playlist from images and directories",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := svc.LoadSettings()
			if err != nil {
				return err
			}
			playback := cfg.Playback
			flags := cmd.Flags()
			if flags.Changed("autoplay") {
				playback.AutoPlayEnabled = autoPlayFlag
			}
			if flags.Changed("interval") {
				playback.AutoPlayInterval = intervalFlag
			}
			if flags.Changed("random") {
				playback.RandomPlayback = randomFlag
			}
			if flags.Changed("autosize") {
				playback.AutoSizeWindow = autoSizeFlag
			}
			absolute := cfg.UseAbsolutePaths
			if flags.Changed("absolute") {
				absolute = absoluteFlag
			}

			out := args[0]
			if filepath.Ext(out) == "" {
				out += ".gzpl"
			}
			n, err := svc.CreatePlaylist(out, args[1:], playback.Normalize(), absolute)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote %s with %d images.\n", out, n)
			return nil
		},
	}
	createCmd.Flags().BoolVar(&absoluteFlag, "absolute", false, "Store absolute paths only")
	createCmd.Flags().BoolVar(&autoPlayFlag, "autoplay", false, "Start auto-play when the playlist opens")
	createCmd.Flags().Float64Var(&intervalFlag, "interval", 3, "Auto-play interval in seconds")
	createCmd.Flags().BoolVar(&randomFlag, "random", false, "Auto-play in random order")
	createCmd.Flags().BoolVar(&autoSizeFlag, "autosize", true, "Fit every image to the window instead of keeping per-image views")
	rootCmd.AddCommand(createCmd)

	// Relink playlist
	relinkCmd := &cobra.Command{
		Use:   "relink [playlist]",
		Short: "Resolve moved images and rewrite the playlist",
		Long: `Resolve every item by absolute path, then relative path, then file name
next to the playlist, and write the result with fresh paths. Items that
cannot be found are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.RelinkPlaylist(args[0], outputFlag)
			if err != nil {
				return err
			}
			relinked := 0
			for _, r := range res.Resolutions {
				if r.Resolved != "" && r.Resolved != r.Stored {
					relinked++
				}
			}
			target := outputFlag
			if target == "" {
				target = args[0]
			}
			cmd.Printf("Wrote %s: %d items, %d relinked, %d dropped.\n", target, len(res.Items), relinked, len(res.Skipped))
			for _, s := range res.Skipped {
				cmd.Printf("  dropped %s\n", s)
			}
			return nil
		},
	}
	relinkCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write to this file instead of overwriting the playlist")
	rootCmd.AddCommand(relinkCmd)

	// Image info
	infoCmd := &cobra.Command{
		Use:   "info [image]",
		Short: "Show an image's size and EXIF data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, _, err := svc.Images.GetImageInfo(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s: %dx%d %s, %d bytes, modified %s\n", filepath.Base(args[0]),
				info.Width, info.Height, info.Format, info.Size, service.FormatTime(info.ModTime))
			keys := make([]string, 0, len(info.EXIFData))
			for k := range info.EXIFData {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				cmd.Printf("  %s: %s\n", k, info.EXIFData[k])
			}
			return nil
		},
	}
	rootCmd.AddCommand(infoCmd)

	// Presets
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage effect presets",
	}
	presetListCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := svc.ListPresets()
			if err != nil {
				return err
			}
			if len(presets) == 0 {
				cmd.Println("No presets stored.")
				return nil
			}
			for _, p := range presets {
				fx := p.Effects
				cmd.Printf("%d. %s: shake=%t(%.1f@%.1f) pulse=%t(%.0f/%.0f every %.2fs)\n", p.Slot+1, p.Name,
					fx.EnableShake, fx.ShakeAmount, fx.ShakeFrequency,
					fx.EnablePulse, fx.PulsePowerX, fx.PulsePowerY, fx.PulseInterval)
			}
			return nil
		},
	}
	presetSaveCmd := &cobra.Command{
		Use:   "save [slot] [name]",
		Short: "Store the default effects in a preset slot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 2 {
				name = strings.TrimSpace(args[1])
			}
			cfg, err := svc.LoadSettings()
			if err != nil {
				return err
			}
			p, err := svc.SavePreset(slot, name, cfg.Effects)
			if err != nil {
				return err
			}
			cmd.Printf("Saved preset %d (%s).\n", slot+1, p.Name)
			return nil
		},
	}
	presetApplyCmd := &cobra.Command{
		Use:   "apply [slot]",
		Short: "Make a preset the default effects for new images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			p, err := svc.ApplyPreset(slot)
			if err != nil {
				return err
			}
			cfg, err := svc.LoadSettings()
			if err != nil {
				return err
			}
			cfg.Effects = p.Effects
			if err := svc.SaveSettings(cfg); err != nil {
				return err
			}
			cmd.Printf("Applied preset %d (%s).\n", slot+1, p.Name)
			return nil
		},
	}
	presetCmd.AddCommand(presetListCmd, presetSaveCmd, presetApplyCmd)
	rootCmd.AddCommand(presetCmd)

	// Recent playlists
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently used playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if forgetFlag != "" {
				if err := svc.ForgetRecent(forgetFlag); err != nil {
					return err
				}
			}
			paths, err := svc.RecentPlaylists()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				cmd.Println("No recent playlists.")
				return nil
			}
			for i, p := range paths {
				cmd.Printf("%2d. %s\n", i+1, p)
			}
			return nil
		},
	}
	recentCmd.Flags().StringVar(&forgetFlag, "forget", "", "Remove a playlist from the list first")
	rootCmd.AddCommand(recentCmd)

	// Define persistent flags on the rootCmd returned by NewRootCmd
	// This ensures flags are available when NewRootCmd is called from main or tests.
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "dbpath", "", "Directory holding the settings database")

	return rootCmd
}

func main() {
	getSvcFunc := func(dbPath string, logger settings.LoggerFunc) (*service.Service, error) {
		store, err := settings.NewStore(dbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings DB: %w", err)
		}
		return service.NewService(store, logger), nil
	}
	rootCmd := NewRootCmd(getSvcFunc)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
