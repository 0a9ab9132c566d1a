// Package askcmder provides the ask command for one-shot advisor queries.
package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"
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

type askCommander struct {
	target           string
	user             string
	connectTimeoutMS uint
	simulate         bool
	debug            bool
}

const askLongDesc string = `Ask the finchat advisor a single question.

The answer comes from the advice service when it is reachable and is
generated locally otherwise. The full answer is rendered as markdown once
the exchange completes, followed by insight tags for the financial topics
it touched.

Examples:
  finchat ask "How much did I spend on dining last month?"
  finchat ask --user alice "should I pay off my credit card first?"
  finchat ask --simulate "how do I start an emergency fund?"`

const askShortDesc string = "Ask the advisor a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}
	fs := config.NewFlagSet()

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
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
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, fs, config.FlagUser, &cmder.user)
	config.AddUintFlag(cmd, fs, config.FlagConnectTimeout, &cmder.connectTimeoutMS)
	cmd.Flags().BoolVar(&cmder.simulate, "simulate", false, "Answer locally without contacting the advice service")

	return cmd
}

func (c *askCommander) run(question string) error {
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	transcript := chat.NewTranscript()

	controller, err := session.NewController(transcript, session.Config{
		Primary:        c.primaryTransport,
		Fallback:       c.fallbackTransport,
		ConnectTimeout: time.Duration(c.connectTimeoutMS) * time.Millisecond,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating session controller: %w", err)
	}

	fmt.Println()

	var exchange *session.Exchange
	if err := cliui.Step(os.Stdout, "Asking the advisor", func() error {
		s, err := controller.Start(context.Background(), question)
		if err != nil {
			return err
		}
		exchange = s.Wait()
		return exchange.Err
	}); err != nil {
		if exchange != nil {
			fmt.Printf("\n  %s\n\n", exchange.FinalText)
		}
		return err
	}

	rendered, _ := cliui.RenderMarkdown(exchange.FinalText)
	fmt.Print(rendered)

	if exchange.FellBack {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("(answered locally; advice service unreachable)"))
	}

	for _, insight := range exchange.Insights {
		fmt.Printf("  %s %s %s\n",
			cliui.ImportanceStyle(insight.Importance).Render("●"),
			cliui.KeyStyle.Render(insight.Category+":"),
			insight.Description,
		)
	}
	fmt.Println()

	return nil
}

// primaryTransport asks the advice service, or generates and answers
// locally with --simulate.
func (c *askCommander) primaryTransport(userText string) transport.Transport {
	if c.simulate {
		return simulated.New(advisor.Generate(userText).Body, c.simulatedConfig())
	}

	return remote.New(remote.Config{
		Target:  c.target,
		UserID:  c.user,
		Message: userText,
	})
}

func (c *askCommander) fallbackTransport(body string) transport.Transport {
	return simulated.New(body, c.simulatedConfig())
}

// simulatedConfig paces local answers at a token delay. Nothing renders
// until the exchange completes in one-shot mode, so pacing only delays
// the answer.
func (c *askCommander) simulatedConfig() simulated.Config {
	return simulated.Config{
		ConnectDelay: time.Millisecond,
		ChunkDelay:   time.Millisecond,
	}
}
