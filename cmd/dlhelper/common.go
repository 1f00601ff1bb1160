package main

import (
	"bufio"
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/config"
	"github.com/alanbriolat/dlhelper/internal/httphost"
	"github.com/alanbriolat/dlhelper/internal/termui"
)

var optionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "dir",
		Usage: "save downloads to `DIR` (default: ~/Downloads)",
	},
	&cli.BoolFlag{
		Name:  "save-as",
		Usage: "ask where to save each download",
	},
	&cli.BoolFlag{
		Name:  "open-folder",
		Usage: "reveal each completed download in the file manager",
	},
	&cli.BoolFlag{
		Name:  "no-badge",
		Usage: "don't show the active download count in the terminal title",
	},
	&cli.StringFlag{
		Name:  "partition",
		Usage: "download in the session for `PARTITION`",
	},
}

// environment is everything a command needs to run downloads on an httphost.App.
type environment struct {
	config    config.Config
	options   dlhelper.Options
	platform  *termui.Platform
	registrar *dlhelper.Registrar
	app       *httphost.App
}

func newEnvironment(ctx context.Context, c *cli.Context) (*environment, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("partition") {
		cfg.Partition = c.String("partition")
	}
	opts := cfg.Options()
	if c.IsSet("dir") {
		opts.Directory = c.String("dir")
	}
	if c.Bool("save-as") {
		opts.SaveAs = true
	}
	if c.Bool("open-folder") {
		opts.OpenFolderWhenDone = true
	}
	if c.Bool("no-badge") {
		opts.ShowBadge = generic.Some(false)
	}

	platform := termui.New(termui.Config{
		Output:       os.Stderr,
		Title:        true,
		DownloadsDir: opts.Directory,
	})
	if opts.Directory == "" {
		if opts.Directory, err = platform.DownloadsDir(); err != nil {
			return nil, err
		}
	}

	hostConfig := httphost.DefaultConfig
	hostConfig.ProgressUpdateInterval = cfg.ProgressInterval
	hostConfig.DefaultPartition = cfg.Partition
	if opts.SaveAs {
		stdin := bufio.NewReader(os.Stdin)
		dir := opts.Directory
		hostConfig.Prompt = func(item *httphost.Item) (string, bool) {
			return termui.AskPath(stdin, os.Stderr, dir, item.Filename())
		}
	}

	registrarConfig := dlhelper.DefaultConfig
	registrarConfig.Platform = platform
	return &environment{
		config:    cfg,
		options:   opts,
		platform:  platform,
		registrar: dlhelper.NewRegistrar(registrarConfig),
		app:       httphost.New(hostConfig, ctx),
	}, nil
}

func (e *environment) Close() {
	e.app.Close()
}
