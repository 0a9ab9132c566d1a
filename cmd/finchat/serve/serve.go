// Package servecmder provides the serve command for running the advice service.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finpersona/finchat/api"
	"github.com/finpersona/finchat/pkg/config"
	"github.com/finpersona/finchat/pkg/dotdir"
	"github.com/finpersona/finchat/pkg/eventstream/nop"
	"github.com/finpersona/finchat/pkg/logger"
	"github.com/finpersona/finchat/pkg/storage/inmemory"
)

type serveCommander struct {
	listen       string
	logFile      string
	chunkDelayMS uint
	configDir    string
	debug        bool
	logger       *zap.Logger
}

const serveLongDesc string = `Run the finchat advice service.

The service answers chat messages with generated financial guidance, streams
responses chunk by chunk, and keeps per-user conversation history in memory
for the lifetime of the process.

Endpoints:
  POST /chat/{user}/message           Answer a message in one shot
  GET  /chat/{user}/message/stream    Stream the answer chunk by chunk
  GET  /chat/{user}/messages          Conversation history
  GET  /chat/users                    Users with stored conversations

Logs are teed to the service log file so "finchat logs" can follow them.

Examples:
  finchat serve
  finchat serve --listen :9090 --chunk-delay-ms 100
  FINCHAT_SERVICE_LISTEN=:9090 finchat serve`

const serveShortDesc string = "Run the finchat advice service"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	fs := config.NewFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// Flag > env > config file > default.
			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagListen,
				config.FlagLogFile,
				config.FlagChunkDelay,
			})

			cmder.listen = v.GetString("service.listen")
			cmder.logFile = v.GetString("service.log_file")
			cmder.chunkDelayMS = v.GetUint("stream.chunk_delay_ms")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagLogFile, &cmder.logFile)
	config.AddUintFlag(cmd, fs, config.FlagChunkDelay, &cmder.chunkDelayMS)

	return cmd
}

func (c *serveCommander) run() error {
	logPath := c.logFile
	if logPath == "" {
		var err error
		logPath, err = dotdir.NewManager().LogPath(c.configDir)
		if err != nil {
			return fmt.Errorf("resolving log path: %w", err)
		}
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	c.logger = logger.NewLoggerWithWriters(c.debug, os.Stdout, logFile)
	defer func() { _ = c.logger.Sync() }()

	// Conversation history lives for the process lifetime only.
	driver := inmemory.NewDriver()
	defer driver.Close()

	publisher := nop.NewPublisher()
	defer publisher.Close()

	server, err := api.NewServer(
		api.Config{
			ListenAddr: c.listen,
			ChunkDelay: time.Duration(c.chunkDelayMS) * time.Millisecond,
		},
		driver,
		publisher,
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	c.logger.Info("starting advice service",
		zap.String("listen", c.listen),
		zap.String("log_file", logPath),
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("advice service error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
