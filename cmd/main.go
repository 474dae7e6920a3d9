package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"CharsetFinder/internal/detect"
	"CharsetFinder/internal/logging"
	"CharsetFinder/internal/scanner"
	"CharsetFinder/internal/settings"
)

const (
	exitFailed    = 1
	exitViolation = 2
	exitCancelled = 130
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "CharsetFinder",
		Usage:     "Detect text file charsets under a directory",
		ArgsUsage: "[root]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "mask",
				Usage: "File name mask with * and ? wildcards, repeatable (e.g. --mask '*.txt' --mask '*.csv')",
			},
			&cli.BoolFlag{
				Name:  "recursive",
				Usage: "Descend into subdirectories",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Max directory depth with --recursive (0 - unlimited)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "view: report every file; validate: report files outside --accept",
			},
			&cli.StringSliceFlag{
				Name:  "accept",
				Usage: "Accepted charsets for validate mode (comma separated or repeated)",
			},
			&cli.StringFlag{
				Name:  "detector",
				Usage: "Detector backend: " + strings.Join(detect.Backends(), ", "),
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Max concurrent detection workers (default scales with CPU)",
			},
			&cli.IntFlag{
				Name:  "cache-size",
				Usage: "Detection cache entries (0 - disabled)",
			},
			&cli.BoolFlag{
				Name:  "skip-unreadable",
				Usage: "Do not report files that cannot be read",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Global timeout for scan (e.g. 10m, 1h)",
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "settings",
				Usage: "Settings file (default ~/.charsetfinder/settings.json)",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not remember the parameters of this run",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "charsets",
				Usage: "List charset identifiers the detectors may report",
				Action: func(c *cli.Context) error {
					for _, cs := range detect.KnownCharsets() {
						fmt.Fprintln(c.App.Writer, cs)
					}
					return nil
				},
			},
		},
		Action: scan,
	}
}

func scan(c *cli.Context) error {
	logging.InitLogger(c.String("logfile"), c.String("log-level"))

	store := settings.NewManager(nil, c.String("settings"))
	if err := store.Load(); err != nil {
		logrus.WithError(err).WithField("path", store.Path()).Warn("Failed to load settings, using defaults")
	}
	req, backend, err := buildRequest(c, store.Get())
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	factory, err := detect.New(backend)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	var stats scanner.AppStats
	stats.Start()
	eng, err := scanner.NewEngine(scanner.Config{
		Detector:  factory,
		Threads:   c.Int("threads"),
		CacheSize: c.Int("cache-size"),
		Stats:     &stats,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	ctrl := scanner.NewController(eng.Fs(), eng)

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := ctrl.Start(ctx, req)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	logrus.WithFields(logrus.Fields{"root": req.Root, "mode": req.Mode, "detector": backend}).Info("CharsetFinder started")

	rep := newReporter(c.App.Writer, os.Stderr, !c.Bool("no-progress"))
	outcome := rep.consume(events)

	if !c.Bool("no-save") {
		store.Update(func(s *settings.Settings) {
			s.LastDirectory = req.Root
			s.Recursive = req.Recursive
			s.Depth = req.Depth
			s.MaskText = req.MaskText
			s.Mode = req.Mode.String()
			s.Accepted = req.Accepted
			s.Detector = backend
		})
		if err := store.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to save settings")
		}
	}

	fmt.Fprintf(os.Stderr,
		"\n======= Scan %s in %s =======\nFiles: %s of %s\nReported: %s\nUnreadable: %s\n",
		outcome.Status, stats.Elapsed().Round(time.Millisecond),
		humanize.Comma(outcome.Completed), humanize.Comma(outcome.Total),
		humanize.Comma(outcome.Reported), humanize.Comma(stats.Errors.Load()),
	)

	switch {
	case outcome.Status == scanner.StatusFailed:
		return cli.Exit(outcome.Err.Error(), exitFailed)
	case outcome.Status == scanner.StatusCancelled:
		return cli.Exit("Scan cancelled", exitCancelled)
	case req.Mode == scanner.ModeValidate && outcome.Reported > 0:
		return cli.Exit("", exitViolation)
	}
	return nil
}

// buildRequest merges command line flags over persisted settings.
func buildRequest(c *cli.Context, s settings.Settings) (scanner.Request, string, error) {
	req := scanner.Request{
		Root:           s.LastDirectory,
		Recursive:      s.Recursive,
		Depth:          s.Depth,
		MaskText:       s.MaskText,
		Accepted:       s.Accepted,
		SkipUnreadable: c.Bool("skip-unreadable"),
	}
	if c.Args().Present() {
		req.Root = c.Args().First()
	}
	if req.Root == "" {
		req.Root = "."
	}
	if abs, err := filepath.Abs(req.Root); err == nil {
		req.Root = abs
	}
	if c.IsSet("recursive") {
		req.Recursive = c.Bool("recursive")
	}
	if c.IsSet("depth") {
		req.Depth = c.Int("depth")
	}
	if c.IsSet("mask") {
		req.MaskText = strings.Join(c.StringSlice("mask"), "\n")
	}
	if c.IsSet("accept") {
		req.Accepted = splitList(c.StringSlice("accept"))
	}

	mode := s.Mode
	if c.IsSet("mode") {
		mode = c.String("mode")
	}
	m, err := scanner.ParseMode(mode)
	if err != nil {
		return req, "", err
	}
	req.Mode = m

	backend := s.Detector
	if c.IsSet("detector") {
		backend = c.String("detector")
	}
	return req, backend, nil
}

func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
