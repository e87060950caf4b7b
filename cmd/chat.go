package cmd

import (
	"encoding/json"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

var (
	chatConversationID string
	chatUserID         string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message through the agents and print the reply envelope",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(be *backend) error {
			orch, err := newOrchestrator(cmd.Context(), be.store, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			out, err := orch.HandleMessage(cmd.Context(), contractx.TurnRequest{
				ConversationID: chatConversationID,
				Message:        strings.Join(args, " "),
				UserID:         chatUserID,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":        true,
				"conversationId": out.ConversationID,
				"message":        out.Message,
				"agentType":      out.AgentType,
				"reasoning":      out.Reasoning,
			})
		})
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "continue an existing conversation")
	chatCmd.Flags().StringVar(&chatUserID, "user", storex.DemoUserID, "user id that owns the conversation")
}
