package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/internal/transport"
	"github.com/zhouzirui/healthdesk/internal/view"
)

var (
	chatBaseURL      string
	chatProfileID    string
	chatProfilesFile string
	chatPolicy       string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive assistant conversation",
	Long: `Reads one message per line from stdin and prints the conversation.

  /reset   start a new assessment
  /quick N send quick reply N (1-based)
  /quit    close the conversation`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatBaseURL, "base-url", "", "Assistant base URL (default $ASSISTANT_BASE_URL or http://localhost:5000)")
	chatCmd.Flags().StringVar(&chatProfileID, "profile", assistant.DefaultProfileID, "Assistant profile id")
	chatCmd.Flags().StringVar(&chatProfilesFile, "profiles-file", "", "YAML file overriding assistant profiles")
	chatCmd.Flags().StringVar(&chatPolicy, "policy", string(chat.PolicyQueue), "Overlap policy: allow, drop or queue")
}

func resolveBaseURL() string {
	if chatBaseURL != "" {
		return chatBaseURL
	}
	if env := strings.TrimSpace(os.Getenv("ASSISTANT_BASE_URL")); env != "" {
		return env
	}
	return "http://localhost:5000"
}

func loadProfile() (assistant.Profile, error) {
	profiles := assistant.Seed()
	if chatProfilesFile != "" {
		var err error
		profiles, err = assistant.LoadOverrides(chatProfilesFile, profiles)
		if err != nil {
			return assistant.Profile{}, err
		}
	}
	profile, ok := assistant.NewMemoryStore(profiles).FindByID(chatProfileID)
	if !ok {
		return assistant.Profile{}, fmt.Errorf("unknown profile %q", chatProfileID)
	}
	return profile, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy, err := chat.ParseOverlapPolicy(chatPolicy)
	if err != nil {
		return err
	}
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	session := chat.NewSession(profile,
		transport.NewHTTPTransport(resolveBaseURL(), timeout, logger),
		view.NewTerminal(out, profile.Name),
		chat.Options{Policy: policy, RequestTimeout: timeout, Logger: logger},
	)
	session.Open()
	defer session.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		text := line

		switch {
		case line == "/quit":
			return nil
		case line == "/reset":
			text = profile.ResetPhrase
		case strings.HasPrefix(line, "/quick"):
			reply, err := quickReply(profile, strings.TrimSpace(strings.TrimPrefix(line, "/quick")))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := session.QuickReply(ctx, reply); err != nil {
				return err
			}
			continue
		}

		if err := session.Submit(ctx, text); err != nil && !errors.Is(err, chat.ErrStaleTurn) {
			return err
		}
	}
	return scanner.Err()
}

func quickReply(profile assistant.Profile, arg string) (string, error) {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 || n > len(profile.QuickReplies) {
		return "", fmt.Errorf("choose a quick reply between 1 and %d", len(profile.QuickReplies))
	}
	return profile.QuickReplies[n-1], nil
}
