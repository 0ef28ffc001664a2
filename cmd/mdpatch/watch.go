package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/joshuapare/markpatch/cmd/mdpatch/logger"
	"github.com/joshuapare/markpatch/pkg/preview"
)

var (
	watchOut      string
	watchDebounce time.Duration
)

func init() {
	cmd := newWatchCmd()
	cmd.Flags().StringVarP(&watchOut, "out", "o", "", "Write HTML to file instead of stdout")
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Wait this long after the last change before rendering")
	rootCmd.AddCommand(cmd)
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file.md>",
		Short: "Re-render a markdown file whenever it changes",
		Long: `The watch command renders a markdown file, then keeps watching it.
Every change is reconciled against the previous version, so only the
edited parts of the output are rebuilt.

Example:
  mdpatch watch notes.md --out notes.html
  mdpatch watch notes.md --out notes.html --debounce 250ms -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args)
		},
	}
	return cmd
}

func runWatch(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window := watchDebounce
	if window <= 0 {
		window = cfg.Debounce
	}
	return watchFile(ctx, args[0], outputPath(watchOut), window, nil)
}

// watchFile renders path to out and re-renders it after every debounced
// change until ctx is done. onPass, if set, sees every successful pass.
func watchFile(
	ctx context.Context,
	path, out string,
	window time.Duration,
	onPass func(preview.Result),
) error {
	session, err := newSession(false)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file on save.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	render := func() error {
		res, err := session.UpdateFile(abs)
		if err != nil {
			return err
		}
		if !res.Stats.Identical {
			if err := writeOutput(out, res.HTML); err != nil {
				return err
			}
		}
		logPass(path, res)
		if out != "" {
			printVerbose("%s: %s\n", path, statsLine(res.Stats))
		}
		if onPass != nil {
			onPass(res)
		}
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if out != "" {
		printInfo("Watching %s\n", path)
	}

	d := newDebouncer(window)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			d.add()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-d.C():
			n := d.take()
			logger.Debug("change detected", "file", path, "events", n)
			if err := render(); err != nil {
				// The file may be mid-save; the next event retries.
				logger.Error("render failed", "file", path, "error", err)
			}
		}
	}
}
