package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/uniserved/chatwidget/internal/model/access"
	"github.com/uniserved/chatwidget/internal/model/chat"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
)

const quitCommand = "/quit"

type chatOptions struct {
	chatbotID string
	phone     string
	code      string
	endpoint  string
}

func newChatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to a chatbot from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.chatSvc.Shutdown()
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.chatbotID, "id", "", "chatbot id or uuid (default: first chatbot)")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "phone number; prompted when empty")
	cmd.Flags().StringVar(&opts.code, "code", "", "access code; prompted when empty")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "override the chatbot answer endpoint")
	return cmd
}

// syncWriter serializes prompt output with replies printed from the event loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func runChat(ctx context.Context, in io.Reader, w io.Writer, a *app, opts chatOptions) error {
	out := &syncWriter{w: w}
	scanner := bufio.NewScanner(in)

	prompt := func(label, preset string) (string, error) {
		if preset != "" {
			return preset, nil
		}
		out.printf("%s: ", label)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	bot := a.chatbots.Resolve(opts.chatbotID)
	if opts.endpoint != "" {
		bot.Endpoint = opts.endpoint
	}
	out.printf("%s\n", bot.Name)
	if bot.Description != "" {
		out.printf("%s\n", bot.Description)
	}

	phone, err := prompt("Phone Number", opts.phone)
	if err != nil {
		return errors.Wrap(err, "read phone number")
	}
	code, err := prompt("Access Code", opts.code)
	if err != nil {
		return errors.Wrap(err, "read access code")
	}
	if msg := access.ValidateInput(phone, code); msg != "" {
		return errors.New(msg)
	}
	if !a.gate.Verify(phone, strings.TrimSpace(code)) {
		return errors.New(access.InvalidMessage)
	}

	session, err := a.chatSvc.CreateSession(ctx, bot)
	if err != nil {
		return errors.Wrap(err, "create session")
	}
	defer a.chatSvc.CloseSession(context.Background(), session.ID())

	events, unsubscribe := session.Subscribe()
	idle := make(chan struct{}, 1)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			switch {
			case ev.Type == chat.EventMessage && !ev.Message.IsUser():
				out.printf("[%s] %s: %s\n", ev.Message.SentAt, bot.Name, ev.Message.Text)
			case ev.Type == chat.EventState && ev.State == chat.StateIdle:
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	out.printf("Type a message, %s to exit.\n", quitCommand)
	for {
		out.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == quitCommand {
			return nil
		}

		if _, err := session.SendText(ctx, line); err != nil {
			if errors.Is(err, chatService.ErrBlankInput) {
				continue
			}
			out.printf("error: %v\n", err)
			continue
		}

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
