package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/llehouerou/streamer/internal/app"
	"github.com/llehouerou/streamer/internal/config"
	"github.com/llehouerou/streamer/internal/errmsg"
	"github.com/llehouerou/streamer/internal/host"
	"github.com/llehouerou/streamer/internal/icons"
	"github.com/llehouerou/streamer/internal/logging"
	"github.com/llehouerou/streamer/internal/mpris"
	"github.com/llehouerou/streamer/internal/notify"
	"github.com/llehouerou/streamer/internal/player"
	"github.com/llehouerou/streamer/internal/state"
	"github.com/llehouerou/streamer/internal/stderr"
	"github.com/llehouerou/streamer/internal/tracks"
)

type options struct {
	configPath string
	icons      string
	loop       bool
	override   tracks.Override
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "streamer <url-or-file>",
		Short: "Stream a single track in the background with a terminal player bar",
		Long: "streamer plays one track from an http(s) URL or a local file and keeps playing\n" +
			"while the player view is detached. The session is also exposed over MPRIS.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args[0], opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.config/streamer/config.toml)")
	flags.StringVar(&opts.icons, "icons", "", `icon style: "nerd", "unicode" or "none"`)
	flags.BoolVarP(&opts.loop, "loop", "l", true, "loop the track (saved as the new default)")
	flags.StringVar(&opts.override.Title, "title", "", "track title shown instead of the tag or file name")
	flags.StringVar(&opts.override.Artist, "artist", "", "artist name")
	flags.StringVar(&opts.override.Album, "album", "", "album name")
	flags.StringVar(&opts.override.AlbumArtURL, "art", "", "album art URL published over MPRIS")

	return cmd
}

func run(cmd *cobra.Command, location string, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	iconStyle := cfg.Icons
	if opts.icons != "" {
		iconStyle = opts.icons
	}
	icons.Init(iconStyle)

	fs := afero.NewOsFs()
	log, logCloser, err := logging.Setup(cfg.GetLogConfig(), fs)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	defer logCloser.Close()

	if err := stderr.Start(log); err != nil {
		log.WithError(err).Warn("capture stderr")
	}
	defer stderr.Stop()

	streamCfg := cfg.GetStreamConfig()
	fetcher := player.NewFetcher(player.FetcherConfig{
		Timeout:   streamCfg.Timeout(),
		MaxBytes:  streamCfg.MaxBytes,
		UserAgent: streamCfg.UserAgent,
	}, fs, log)

	track, err := tracks.NewProvider(fs, fetcher, log).Resolve(cmd.Context(), location, opts.override)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpTrackResolve, location, err))
	}

	h, err := newHost(cfg, fetcher, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.WithError(err).Warn("close host")
		}
	}()

	if cmd.Flags().Changed("loop") {
		if err := h.SetLoop(opts.loop); err != nil {
			return errors.New(errmsg.Format(errmsg.OpPlaybackLoop, err))
		}
	}

	if cfg.MPRISEnabled() {
		adapter, err := mpris.New(h, log)
		if err != nil {
			log.WithError(err).Warn("mpris unavailable")
		} else {
			defer adapter.Close()
		}
	}

	model, err := app.New(h, track, true, log)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpObserverAttach, err))
	}

	final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func newHost(cfg *config.Config, fetcher *player.Fetcher, log *logrus.Logger) (*host.Service, error) {
	prefs, err := state.Open(log)
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpPrefsLoad, err))
	}

	var notifier notify.Notifier
	if cfg.Notifications {
		notifier, err = notify.New(log)
		if err != nil {
			log.WithError(err).Warn("notifications unavailable")
			notifier = nil
		}
	}

	return host.New(player.New(fetcher, log), prefs, host.Options{
		DefaultLoop:   cfg.DefaultLoop(),
		DefaultVolume: cfg.DefaultVolume(),
		Notifier:      notifier,
	}, log), nil
}
