package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/uniserved/chatwidget/internal/config"
	"github.com/uniserved/chatwidget/internal/model/access"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/internal/service/answer"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("chatwidget exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "chatwidget",
		Short:         "Uniserved chat widget server and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil {
				log.Debug().Err(err).Str("file", envFile).Msg("env file not loaded, using process environment only")
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	serve := newServeCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newChatCmd())
	return root
}

// app holds what both the server and the terminal client need.
type app struct {
	cfg      *config.Config
	chatbots *chatbot.Directory
	gate     *access.Gate
	chatSvc  *chatService.Service
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	config.ConfigureLogging(cfg.Log)

	tables, err := config.LoadTables(cfg.Tables, cfg.Answer.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "load tables")
	}

	chatbots, err := chatbot.NewDirectory(tables.Chatbots)
	if err != nil {
		return nil, errors.Wrap(err, "build chatbot directory")
	}
	gate := access.NewGate(tables.AccessCodes)

	client := answer.NewClient(
		answer.WithTimeout(cfg.Answer.Timeout),
		answer.WithHeaders(cfg.Answer.Headers),
	)

	delay := cfg.Session.GreetingDelay
	if !cfg.Session.GreetingEnabled {
		delay = -1
	}
	chatSvc := chatService.NewService(client, chatService.Options{
		GreetingDelay: delay,
		Greeting:      cfg.Session.Greeting,
		Location:      cfg.Session.Location,
	})

	log.Info().
		Int("chatbots", len(chatbots.List())).
		Int("access_codes", gate.Len()).
		Str("base_url", cfg.Answer.BaseURL).
		Msg("tables loaded")

	return &app{cfg: cfg, chatbots: chatbots, gate: gate, chatSvc: chatSvc}, nil
}
