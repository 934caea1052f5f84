package client

import (
	"os"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command for the Palabra client.
// It registers the subscribers, broadcast, history and devotional commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "palabra",
		Short: "Palabra client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands attaches the client commands and the persistent --token flag
// to parent.
func AddCommands(parent *cobra.Command, baseURL BaseURLFunc) {
	parent.PersistentFlags().String("token", os.Getenv("PALABRA_ADMIN_TOKEN"), "Admin bearer token")
	parent.PersistentFlags().Bool("json", false, "Print raw JSON responses")
	parent.AddCommand(NewSubscribersCommand(baseURL))
	parent.AddCommand(NewBroadcastCommand(baseURL))
	parent.AddCommand(NewHistoryCommand(baseURL))
	parent.AddCommand(NewFetchDevotionalCommand(baseURL))
}
