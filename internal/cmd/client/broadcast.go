package client

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	"github.com/fundacionmisionvida7/Pagina/internal/journal"
	"github.com/spf13/cobra"
)

// NewBroadcastCommand constructs the `broadcast` command. Without --title it
// triggers the daily devotional; with --title it sends a custom notification.
func NewBroadcastCommand(baseURL BaseURLFunc) *cobra.Command {
	broadcastCmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send the daily devotional or a custom notification to subscribers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			audience, _ := cmd.Flags().GetString("audience")
			title, _ := cmd.Flags().GetString("title")
			body, _ := cmd.Flags().GetString("body")
			icon, _ := cmd.Flags().GetString("icon")
			link, _ := cmd.Flags().GetString("url")

			var sum dispatch.Summary
			var err error
			if title == "" {
				if body != "" {
					return fmt.Errorf("--body requires --title")
				}
				path := "/api/send-daily"
				if audience != "" {
					path += "?audience=" + url.QueryEscape(audience)
				}
				err = doJSON(cmd, baseURL, http.MethodPost, path, nil, &sum)
			} else {
				req := map[string]string{"title": title, "body": body, "icon": icon, "url": link, "audience": audience}
				err = doJSON(cmd, baseURL, http.MethodPost, "/v1/broadcasts", req, &sum)
			}
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, sum)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderSummary(sum))
			return nil
		},
	}
	broadcastCmd.Flags().String("audience", "", "CEL expression selecting recipients (e.g. host == \"fcm.googleapis.com\")")
	broadcastCmd.Flags().String("title", "", "Custom notification title")
	broadcastCmd.Flags().String("body", "", "Custom notification body")
	broadcastCmd.Flags().String("icon", "", "Custom notification icon")
	broadcastCmd.Flags().String("url", "", "URL opened when the notification is clicked")
	return broadcastCmd
}

// NewHistoryCommand constructs the `history` command.
func NewHistoryCommand(baseURL BaseURLFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent broadcasts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			var resp struct {
				Total      int             `json:"total"`
				Broadcasts []journal.Entry `json:"broadcasts"`
			}
			path := fmt.Sprintf("/v1/broadcasts?limit=%d", limit)
			if err := doJSON(cmd, baseURL, http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, resp.Broadcasts)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderHistory(resp.Broadcasts, resp.Total))
			return nil
		},
	}
	historyCmd.Flags().Int("limit", 20, "Number of broadcasts to show")
	return historyCmd
}

// NewFetchDevotionalCommand constructs the `today` command, which reads the
// devotional through the server.
func NewFetchDevotionalCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's devotional as served by the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d devotional.Devotional
			if err := doJSON(cmd, baseURL, http.MethodGet, "/api/devotional", nil, &d); err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, d)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderDevotional(d))
			return nil
		},
	}
}
