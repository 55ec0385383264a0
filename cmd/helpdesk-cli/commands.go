package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"helpdesk_backend/internal/clientview"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	envServerURL     = "HELPDESK_SERVER_URL"
	envToken         = "HELPDESK_TOKEN"
	defaultServerURL = "http://localhost:3000"

	ticketAsk    = "ask"
	ticketAccept = "accept"
	ticketReject = "reject"
)

type options struct {
	serverURL string
	token     string
}

func (o *options) viewModel() *clientview.ViewModel {
	return clientview.NewViewModel(o.api())
}

func (o *options) api() *clientview.HTTPClient {
	return clientview.NewHTTPClient(o.serverURL, o.token, nil)
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "helpdesk-cli",
		Short:        "Chat with the help desk from a terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.token == "" {
				return fmt.Errorf("an access token is required (--token or %s)", envToken)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.serverURL, "server", "s", envOr(envServerURL, defaultServerURL), "Help desk server base URL")
	cmd.PersistentFlags().StringVarP(&opts.token, "token", "t", os.Getenv(envToken), "Bearer access token")

	cmd.AddCommand(
		newChatsCommand(opts),
		newSendCommand(opts),
		newTicketCommand(opts),
	)
	return cmd
}

func newChatsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List, create and show chats",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chats, most recently active first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				vm := opts.viewModel()
				if err := vm.Load(cmd.Context()); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, c := range vm.Chats() {
					fmt.Fprintf(out, "%s  %-40s  %s\n", c.ID, truncate(c.Title, 40), formatTime(c.LastActivityAt))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "new [title]",
			Short: "Create a chat",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				title := ""
				if len(args) == 1 {
					title = args[0]
				}
				chat, err := opts.viewModel().NewChat(cmd.Context(), title)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), chat.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <chat-id>",
			Short: "Print the latest messages of a chat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				chatID, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid chat id: %w", err)
				}
				vm := opts.viewModel()
				if err := vm.Load(cmd.Context()); err != nil {
					return err
				}
				chat, ok := vm.Chat(chatID)
				if !ok {
					return clientview.ErrUnknownChat
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "# %s\n", chat.Title)
				for _, m := range chat.Messages {
					printMessage(out, m)
				}
				return nil
			},
		},
	)
	return cmd
}

func newSendCommand(opts *options) *cobra.Command {
	var (
		imagePath string
		ticket    string
	)

	cmd := &cobra.Command{
		Use:   "send <chat-id> [message]",
		Short: "Send a message and print the assistant's reply",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticket != ticketAsk && ticket != ticketAccept && ticket != ticketReject {
				return fmt.Errorf("--ticket must be one of %s, %s, %s", ticketAsk, ticketAccept, ticketReject)
			}
			chatID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid chat id: %w", err)
			}

			ctx := cmd.Context()
			vm := opts.viewModel()
			if err := vm.Load(ctx); err != nil {
				return err
			}
			if len(args) == 2 {
				vm.SetDraft(chatID, args[1])
			}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				vm.AttachImage(chatID, imagePath, data)
			}

			out := cmd.OutOrStdout()
			result, err := vm.Send(ctx, chatID)
			if err != nil {
				if notice := vm.Notice(); notice != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), notice)
				}
				return err
			}
			printMessage(out, clientview.Message{Sender: result.AIMessage.Sender, Content: result.AIMessage.Content})

			pending, ok := vm.PendingTicket()
			if !ok {
				if notice := vm.Notice(); notice != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), notice)
				}
				return nil
			}
			return decideTicket(ctx, cmd, vm, pending, ticket)
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path of an image to attach")
	cmd.Flags().StringVar(&ticket, "ticket", ticketAsk, "What to do with a suggested ticket: ask, accept or reject")
	return cmd
}

func decideTicket(ctx context.Context, cmd *cobra.Command, vm *clientview.ViewModel, pending clientview.PendingTicket, mode string) error {
	out := cmd.OutOrStdout()
	s := pending.Suggestion
	fmt.Fprintf(out, "\nSuggested ticket %s: %s\n", s.TicketNumber, s.Subject)

	accept := mode == ticketAccept
	if mode == ticketAsk {
		fmt.Fprint(out, "Open this ticket? [y/N] ")
		answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read answer: %w", err)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		accept = answer == "y" || answer == "yes"
	}

	if accept {
		ticket, err := vm.AcceptTicket(ctx)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), vm.Notice())
			return err
		}
		fmt.Fprintf(out, "Ticket %s is %s\n", ticket.TicketNumber, ticket.Status)
		return nil
	}

	if err := vm.RejectTicket(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), vm.Notice())
		return err
	}
	fmt.Fprintf(out, "Ticket %s discarded\n", s.TicketNumber)
	return nil
}

func newTicketCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Confirm or cancel a pending ticket by number",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "confirm <ticket-number>",
			Short: "Confirm a pending ticket",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ticket, err := opts.api().ConfirmTicket(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s is %s\n", ticket.TicketNumber, ticket.Status)
				return nil
			},
		},
		&cobra.Command{
			Use:   "cancel <ticket-number>",
			Short: "Cancel a pending ticket",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.api().CancelTicket(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s discarded\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func printMessage(out io.Writer, m clientview.Message) {
	who := "you"
	if m.Sender == "ai" {
		who = "assistant"
	}
	fmt.Fprintf(out, "[%s] %s\n", who, m.Content)
	if m.ImageURL != nil {
		fmt.Fprintf(out, "    image: %s\n", *m.ImageURL)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
