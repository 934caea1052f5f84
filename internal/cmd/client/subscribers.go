package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type subscriberView struct {
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"createdAt"`
}

type subscribersResp struct {
	Count       int              `json:"count"`
	Subscribers []subscriberView `json:"subscribers"`
}

// NewSubscribersCommand constructs the `subscribers` command group.
func NewSubscribersCommand(baseURL BaseURLFunc) *cobra.Command {
	subsCmd := &cobra.Command{Use: "subscribers", Short: "Subscriber registry operations"}
	subsCmd.AddCommand(
		newSubscribersListCommand(baseURL),
		newSubscribersCountCommand(baseURL),
		newSubscribersRemoveCommand(baseURL),
	)
	return subsCmd
}

// newSubscribersListCommand constructs the `subscribers list` subcommand.
func newSubscribersListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp subscribersResp
			if err := doJSON(cmd, baseURL, http.MethodGet, "/v1/subscribers", nil, &resp); err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, resp)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderSubscribers(resp.Subscribers))
			return nil
		},
	}
}

// newSubscribersCountCommand constructs the `subscribers count` subcommand.
func newSubscribersCountCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp subscribersResp
			if err := doJSON(cmd, baseURL, http.MethodGet, "/v1/subscribers?count_only=true", nil, &resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "count:", resp.Count)
			return nil
		},
	}
}

// newSubscribersRemoveCommand constructs the `subscribers remove` subcommand.
func newSubscribersRemoveCommand(baseURL BaseURLFunc) *cobra.Command {
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a subscription by endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoint, _ := cmd.Flags().GetString("endpoint")
			if endpoint == "" {
				return fmt.Errorf("--endpoint is required")
			}
			var resp struct {
				Removed bool `json:"removed"`
			}
			body := map[string]string{"endpoint": endpoint}
			if err := doJSON(cmd, baseURL, http.MethodPost, "/api/unsubscribe", body, &resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "removed:", resp.Removed)
			return nil
		},
	}
	removeCmd.Flags().String("endpoint", "", "Push service endpoint URL")
	return removeCmd
}
