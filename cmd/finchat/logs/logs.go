// Package logscmder provides the logs command for following the advice
// service log file.
package logscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/finpersona/finchat/pkg/config"
	"github.com/finpersona/finchat/pkg/dotdir"
)

type logsCommander struct {
	logFile   string
	configDir string
}

const logsLongDesc string = `Follow the advice service log file.

Prints new log lines as the service writes them, like tail -f. The file
defaults to the service.log_file config value, falling back to service.log
inside the .finchat/ directory where "finchat serve" tees its output.

Examples:
  finchat logs
  finchat logs --log-file /var/log/finchat.log`

const logsShortDesc string = "Follow the advice service log"

func NewLogsCmd() *cobra.Command {
	cmder := &logsCommander{}
	fs := config.NewFlagSet()

	cmd := &cobra.Command{
		Use:   "logs",
		Short: logsShortDesc,
		Long:  logsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("log-file") {
				cmder.logFile = cfg.Service.LogFile
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *logsCommander) run(out io.Writer) error {
	logPath := c.logFile
	if logPath == "" {
		var err error
		logPath, err = dotdir.NewManager().LogPath(c.configDir)
		if err != nil {
			return fmt.Errorf("resolving log path: %w", err)
		}
	}

	if _, err := os.Stat(logPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no service logs found at %s (is the service running?)", logPath)
		}
		return fmt.Errorf("checking log file: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := followLog(ctx, logPath, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// followLog tails the file at path, writing content appended after the
// call to out until ctx is canceled.
func followLog(ctx context.Context, path string, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer file.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating log watcher: %w", err)
	}
	defer watcher.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}

	if _, err := file.Seek(stat.Size(), io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	// Watch the directory rather than the file so rotation and recreation
	// still deliver events.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching log dir: %w", err)
	}

	buf := make([]byte, 4096)
	readAvailable := func() error {
		for {
			n, err := file.Read(buf)
			if n > 0 {
				if _, writeErr := out.Write(buf[:n]); writeErr != nil {
					return writeErr
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	}

	if err := readAvailable(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := readAvailable(); err != nil {
				return err
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("log watcher error: %w", err)
		}
	}
}
