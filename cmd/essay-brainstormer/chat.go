// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

const welcome = "Welcome! Please enter your details: Name, Stream, Major, College Name"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Brainstorm in the terminal",
	Long: `Chat runs one brainstorming session interactively. Pass --name, --stream,
--college (and optionally --major) to skip the details prompt; otherwise
enter them as one comma-separated line. Type "exit" or press Ctrl-D to quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	profile, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}

	mgr, closeStore, err := buildManager(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	return chatLoop(cmd.Context(), mgr, profile, rl, rl.Stdout())
}

// profileFromFlags returns nil when no profile flag is set.
func profileFromFlags(cmd *cobra.Command) (*types.UserProfile, error) {
	name, _ := cmd.Flags().GetString("name")
	stream, _ := cmd.Flags().GetString("stream")
	major, _ := cmd.Flags().GetString("major")
	college, _ := cmd.Flags().GetString("college")

	p := types.UserProfile{
		Name:            strings.TrimSpace(name),
		EducationStream: strings.TrimSpace(stream),
		Major:           strings.TrimSpace(major),
		CollegeName:     strings.TrimSpace(college),
	}
	if p == (types.UserProfile{}) {
		return nil, nil
	}
	if p.Name == "" || p.EducationStream == "" || p.CollegeName == "" {
		return nil, errors.New("--name, --stream, and --college must be given together")
	}
	return &p, nil
}

type chatter interface {
	Start(ctx context.Context, id string, profile types.UserProfile) (string, session.Reply, error)
	Chat(ctx context.Context, id, message string) (string, session.Reply, error)
}

type lineReader interface {
	Readline() (string, error)
}

// chatLoop drives one session from in until it completes, the user quits,
// or input ends. Lines are sent as typed, blank ones included. Generation
// failures are printed and the turn can be retried.
func chatLoop(ctx context.Context, s chatter, profile *types.UserProfile, in lineReader, out io.Writer) error {
	var id string
	if profile != nil {
		var reply session.Reply
		var err error
		id, reply, err = s.Start(ctx, "", *profile)
		switch {
		case err == nil:
			fmt.Fprintf(out, "\n%s\n\n", reply.Text)
		case errors.Is(err, session.ErrGeneration):
			fmt.Fprintf(out, "Error: %v\n%s\n", session.ErrGeneration, welcome)
		default:
			return err
		}
	} else {
		fmt.Fprintln(out, welcome)
	}

	for {
		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		var reply session.Reply
		id, reply, err = s.Chat(ctx, id, line)
		if errors.Is(err, session.ErrGeneration) {
			fmt.Fprintf(out, "Error: %v\n", session.ErrGeneration)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", reply.Text)
		if reply.Complete {
			return nil
		}
	}
}

func init() {
	chatCmd.Flags().String("name", "", "student name")
	chatCmd.Flags().String("stream", "", "education stream, e.g. Engineering")
	chatCmd.Flags().String("major", "", "intended major (optional)")
	chatCmd.Flags().String("college", "", "target college")

	rootCmd.AddCommand(chatCmd)
}
