package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyvo/animate/pkg/apiclient"
	"github.com/vyvo/animate/pkg/logging"
	"github.com/vyvo/animate/pkg/session"
)

type generateOptions struct {
	session.Options
	out          string
	pollInterval time.Duration
	maxAttempts  int
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Animate an image and download the resulting video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Prompt, "prompt", "", "motion prompt (server default when empty)")
	flags.StringVar(&opts.Quality, "quality", "", `"speed" or "quality"`)
	flags.IntVar(&opts.Duration, "duration", 0, "video length in seconds, 5 or 10")
	flags.IntVar(&opts.FPS, "fps", 0, "frame rate, 30 or 60")
	flags.StringVar(&opts.Size, "size", "", "output resolution, e.g. 1920x1080")
	flags.StringVarP(&opts.out, "out", "o", "", "where to write the video (defaults to <image>.mp4)")
	flags.DurationVar(&opts.pollInterval, "poll-interval", root.cfg.PollInterval, "delay between status checks")
	flags.IntVar(&opts.maxAttempts, "max-attempts", root.cfg.MaxAttempts, "status checks before giving up")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, imagePath string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	out := opts.out
	if out == "" {
		out = strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".mp4"
	}

	w := cmd.OutOrStdout()
	client := apiclient.NewClient(root.cfg.APIURL, root.cfg.RequestTimeout)
	sess := session.New(client, client,
		session.WithPollInterval(opts.pollInterval),
		session.WithMaxAttempts(opts.maxAttempts),
		session.WithLogger(logging.WithComponent("session")),
		session.WithObserver(progressPrinter(w)),
	)

	if err := sess.Upload(filepath.Base(imagePath), data); err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := sess.Generate(ctx, opts.Options); err != nil {
		return err
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		sess.Reset()
		return ctx.Err()
	}

	snap := sess.Snapshot()
	if snap.State != session.StateSucceeded {
		return snap.Err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	n, err := client.Download(ctx, snap.VideoURL, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %s (%d bytes)\n", out, n)
	return nil
}

// progressPrinter prints one line per distinct message.
func progressPrinter(w io.Writer) func(session.Snapshot) {
	var last string
	return func(snap session.Snapshot) {
		if snap.Message == "" || snap.Message == last {
			return
		}
		last = snap.Message
		fmt.Fprintf(w, "[%3d%%] %s\n", snap.Progress, snap.Message)
	}
}
