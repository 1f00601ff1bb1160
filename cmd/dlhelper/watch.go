package main

import (
	"context"
	"errors"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/r3labs/diff/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/internal/termui"
)

func watchCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "start every URL at once, logging the events of every session",
		ArgsUsage: "URL...",
		Flags:     optionFlags,
		Action: func(c *cli.Context) error {
			urls := c.Args().Slice()
			if len(urls) == 0 {
				return errors.New("no URLs given")
			}
			env, err := newEnvironment(ctx, c)
			if err != nil {
				return err
			}
			defer env.Close()

			attachment := env.registrar.Attach(env.app, env.options)
			defer attachment.Close()
			events, err := attachment.Subscribe()
			if err != nil {
				return err
			}

			window := env.app.NewWindow("", termui.NewProgressBar(os.Stderr, "downloading"))
			if err := attachment.Err(); err != nil {
				return err
			}
			for _, url := range urls {
				window.Contents().DownloadURL(url)
			}
			return watch(ctx, events.Receive(), len(urls))
		},
	}
}

// watch logs events until count items have finished.
func watch(ctx context.Context, events <-chan dlhelper.Event, count int) error {
	log := zap.S()
	var result error
	for count > 0 {
		select {
		case event, ok := <-events:
			if !ok {
				return result
			}
			log.Debugf("event: %T: %v", event, event.Item().URL())
			switch e := event.(type) {
			case dlhelper.ItemStarted:
				size := "unknown size"
				if total := e.Item().TotalBytes(); total > 0 {
					size = humanize.Bytes(uint64(total))
				}
				log.Infof("Started %s -> %s (%s)", e.Item().URL(), e.SavePath, size)
			case dlhelper.ItemUpdated:
				logCounterChanges(e.OldCounters, e.NewCounters)
			case dlhelper.ItemDone:
				count--
				switch e.State {
				case dlhelper.ItemStateCompleted:
					log.Infof("Completed %s (%d remaining)", e.Item().SavePath(), e.ActiveCount)
				case dlhelper.ItemStateInterrupted:
					result = multierror.Append(result, e.Err)
				case dlhelper.ItemStateCancelled:
					log.Warnf("Cancelled %s", e.Item().URL())
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return result
}

func logCounterChanges(old dlhelper.ByteCounters, updated dlhelper.ByteCounters) {
	log := zap.S()
	changes, err := diff.Diff(old, updated)
	if err != nil {
		log.Errorf("failed to diff old and new counters: %v", err)
		return
	}
	for _, change := range changes {
		log.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}
