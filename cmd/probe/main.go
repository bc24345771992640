// Command probe resolves stream locations the way the player does and
// prints their metadata and decoded length. Useful for checking a URL or
// file before handing it to streamer.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/llehouerou/streamer/internal/config"
	"github.com/llehouerou/streamer/internal/player"
	"github.com/llehouerou/streamer/internal/tracks"
)

func main() {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "probe <url-or-file>...",
		Short:        "Print metadata and duration of stream locations",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetOutput(os.Stderr)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			streamCfg := cfg.GetStreamConfig()

			fs := afero.NewOsFs()
			fetcher := player.NewFetcher(player.FetcherConfig{
				Timeout:   streamCfg.Timeout(),
				MaxBytes:  streamCfg.MaxBytes,
				UserAgent: streamCfg.UserAgent,
			}, fs, log)
			provider := tracks.NewProvider(fs, fetcher, log)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tTITLE\tARTIST - ALBUM\tDURATION\tSONG ID")

			failed := 0
			for _, location := range args {
				track, err := provider.Resolve(cmd.Context(), location, tracks.Override{})
				if err != nil {
					log.WithError(err).WithField("location", location).Error("resolve")
					failed++
					continue
				}
				duration := track.Duration
				if duration == 0 {
					// Remote streams are not fetched during Resolve.
					if duration, err = fetcher.Probe(cmd.Context(), track.StreamURL); err != nil {
						log.WithError(err).WithField("location", location).Error("probe")
						failed++
						continue
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					location, track.DisplayTitle(), track.Subtitle(), duration.Round(time.Second), track.SongID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%s of %s locations failed", humanize.Comma(int64(failed)), humanize.Comma(int64(len(args))))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log fetch details")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
