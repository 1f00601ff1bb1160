package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/async"
	"github.com/alanbriolat/dlhelper/internal/httphost"
	"github.com/alanbriolat/dlhelper/internal/ipc"
	"github.com/alanbriolat/dlhelper/internal/termui"
)

type downloadFunc func(ctx context.Context, url string, opts dlhelper.Options) (dlhelper.ItemInfo, error)

func getCommand(ctx context.Context) *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:  "filename",
			Usage: "save the (single) URL as `NAME`, replacing any existing file",
		},
		&cli.StringFlag{
			Name:  "view",
			Usage: "download through an embedded view using the session for `PARTITION`",
		},
	}, optionFlags...)
	return &cli.Command{
		Name:      "get",
		Usage:     "download each URL in turn",
		ArgsUsage: "URL...",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			urls := c.Args().Slice()
			if len(urls) == 0 {
				return errors.New("no URLs given")
			}
			if c.IsSet("filename") && len(urls) > 1 {
				return errors.New("--filename only works with a single URL")
			}
			env, err := newEnvironment(ctx, c)
			if err != nil {
				return err
			}
			defer env.Close()

			bar := termui.NewProgressBar(os.Stderr, "downloading")
			window := env.app.NewWindow("", bar)
			download := env.directDownload(window)
			if partition := c.String("view"); partition != "" {
				var stop func()
				download, stop = env.viewDownload(ctx, window.AttachView(partition))
				defer stop()
			}

			opts := env.options
			opts.Filename = c.String("filename")
			var result error
			for _, url := range urls {
				if err := get(ctx, download, url, opts); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s: %w", url, err))
				}
			}
			return result
		},
	}
}

func get(ctx context.Context, download downloadFunc, url string, opts dlhelper.Options) error {
	log := zap.S()
	started := time.Now()
	// A cancelled item never finishes a Download, so stop waiting for it
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.OnCancel = func(item dlhelper.Item) {
		log.Warnf("Cancelled %s", item.URL())
		cancel()
	}
	log.Infof("Downloading %s", url)
	info, err := download(ctx, url, opts)
	if err != nil {
		return err
	}
	log.Infof("Saved %s (%s in %v)", info.SavePath, humanize.Bytes(uint64(info.ReceivedBytes)),
		time.Since(started).Round(time.Millisecond))
	return nil
}

func (e *environment) directDownload(window *httphost.Window) downloadFunc {
	return func(ctx context.Context, url string, opts dlhelper.Options) (dlhelper.ItemInfo, error) {
		item, err := e.registrar.Download(ctx, window, url, opts)
		return dlhelper.NewItemInfo(item), err
	}
}

// viewDownload routes downloads through an ipc server, the way an embedded view has to.
func (e *environment) viewDownload(ctx context.Context, view *httphost.View) (downloadFunc, func()) {
	client, server := ipc.Connect(e.registrar, e.app)
	ctx, cancel := context.WithCancel(ctx)
	done := async.Run(func() error { return server.Run(ctx) })
	stop := func() {
		client.Close()
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			zap.S().Warnf("ipc server: %v", err)
		}
	}
	return func(ctx context.Context, url string, opts dlhelper.Options) (dlhelper.ItemInfo, error) {
		return client.Download(ctx, view, url, opts)
	}, stop
}
