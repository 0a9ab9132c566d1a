// Package chatcmder provides the chat command for interactive advisor
// sessions against the finchat advice service.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
	"github.com/finpersona/finchat/pkg/cliui"
	"github.com/finpersona/finchat/pkg/config"
	"github.com/finpersona/finchat/pkg/logger"
	"github.com/finpersona/finchat/pkg/session"
	"github.com/finpersona/finchat/pkg/transport"
	"github.com/finpersona/finchat/pkg/transport/remote"
	"github.com/finpersona/finchat/pkg/transport/simulated"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = cliui.AssistantStyle.Render("advisor> ")
)

type chatCommander struct {
	target           string
	user             string
	connectTimeoutMS uint
	chunkDelayMS     uint
	simulate         bool
	stream           bool
	debug            bool
}

const chatLongDesc string = `Start an interactive session with the finchat advisor.

Messages go to the advice service first; if the service cannot be reached,
the answer is generated locally and streamed word by word instead, so the
conversation keeps working offline. Each answer arrives progressively and
ends with insight tags for the financial topics it touched.

While an answer is streaming, Ctrl+C stops it and keeps the words received
so far. Use /exit or Ctrl+D to leave the session.

Examples:
  finchat chat
  finchat chat --user alice --target http://advisor.internal:8080
  finchat chat --stream
  finchat chat --simulate`

const chatShortDesc string = "Interactive advisor session"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}
	fs := config.NewFlagSet()

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("target") {
				cmder.target = cfg.Client.Target
			}
			if !cmd.Flags().Changed("user") {
				cmder.user = cfg.Client.User
			}
			if !cmd.Flags().Changed("connect-timeout-ms") {
				cmder.connectTimeoutMS = cfg.Client.ConnectTimeoutMS
			}
			if !cmd.Flags().Changed("chunk-delay-ms") {
				cmder.chunkDelayMS = cfg.Stream.ChunkDelayMS
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, fs, config.FlagUser, &cmder.user)
	config.AddUintFlag(cmd, fs, config.FlagConnectTimeout, &cmder.connectTimeoutMS)
	config.AddUintFlag(cmd, fs, config.FlagChunkDelay, &cmder.chunkDelayMS)
	cmd.Flags().BoolVar(&cmder.simulate, "simulate", false, "Answer locally without contacting the advice service")
	cmd.Flags().BoolVar(&cmder.stream, "stream", false, "Stream answers from the service chunk by chunk instead of one shot")

	return cmd
}

func (c *chatCommander) run() error {
	// Logs go to stderr so streamed answers on stdout stay intact.
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	fmt.Println()
	if c.simulate {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Advisor:"), cliui.NameStyle.Render("local (simulated)"))
	} else {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Advisor:"), cliui.NameStyle.Render(c.target))
	}
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("User:"), cliui.NameStyle.Render(c.user))
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. Ctrl+C stops a streaming answer. /exit or Ctrl+D to quit."))

	transcript := chat.NewTranscript()
	printer := &streamPrinter{w: os.Stdout}
	transcript.SetNotify(printer.print)

	controller, err := session.NewController(transcript, session.Config{
		Primary:        c.primaryTransport,
		Fallback:       c.fallbackTransport,
		ConnectTimeout: time.Duration(c.connectTimeoutMS) * time.Millisecond,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating session controller: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		// Drop any interrupt delivered while waiting at the prompt.
		select {
		case <-sigChan:
		default:
		}

		s, err := controller.Start(context.Background(), input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		printer.reset()
		fmt.Print(assistantPrompt)

		select {
		case <-s.Done():
		case <-sigChan:
			controller.CloseActive()
			<-s.Done()
		}

		exchange := s.Wait()
		c.printOutcome(exchange)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// printOutcome closes out the streamed answer with insight tags, the
// cancellation note, or the failure text.
func (c *chatCommander) printOutcome(exchange *session.Exchange) {
	switch {
	case exchange.Err != nil:
		fmt.Printf("\n\n  %s %s\n\n", cliui.FailMark, exchange.FinalText)

	case exchange.Canceled:
		fmt.Printf("\n\n  %s\n\n", cliui.DimStyle.Render("(stopped; keeping the answer so far)"))

	default:
		fmt.Println()
		if exchange.FellBack {
			fmt.Printf("\n  %s\n", cliui.DimStyle.Render("(answered locally; advice service unreachable)"))
		}
		fmt.Println()
		for _, insight := range exchange.Insights {
			fmt.Printf("  %s %s %s\n",
				cliui.ImportanceStyle(insight.Importance).Render("●"),
				cliui.KeyStyle.Render(insight.Category+":"),
				insight.Description,
			)
		}
		fmt.Println()
	}
}

// primaryTransport builds the transport for a new exchange. With --simulate
// the answer is generated and paced locally; otherwise the advice service is
// asked, either one shot or streaming.
func (c *chatCommander) primaryTransport(userText string) transport.Transport {
	if c.simulate {
		return simulated.New(advisor.Generate(userText).Body, c.simulatedConfig())
	}

	cfg := remote.Config{
		Target:  c.target,
		UserID:  c.user,
		Message: userText,
	}
	if c.stream {
		return remote.NewStream(cfg)
	}
	return remote.New(cfg)
}

// fallbackTransport paces an already-generated body locally.
func (c *chatCommander) fallbackTransport(body string) transport.Transport {
	return simulated.New(body, c.simulatedConfig())
}

func (c *chatCommander) simulatedConfig() simulated.Config {
	return simulated.Config{
		ChunkDelay: time.Duration(c.chunkDelayMS) * time.Millisecond,
	}
}

// streamPrinter prints the growing assistant answer as transcript
// notifications arrive, emitting only the new suffix each time.
type streamPrinter struct {
	w       io.Writer
	mu      sync.Mutex
	printed int
}

func (p *streamPrinter) print(messages []chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Sender != chat.SenderAssistant || !msg.InProgress {
			continue
		}
		if len(msg.Text) > p.printed {
			fmt.Fprint(p.w, msg.Text[p.printed:])
			p.printed = len(msg.Text)
		}
		return
	}
}

func (p *streamPrinter) reset() {
	p.mu.Lock()
	p.printed = 0
	p.mu.Unlock()
}
