package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// pollctl is the operator CLI for a running PingPollz server. It talks to the
// REST query surface only; everything it does is also available to the
// presenter dashboard.
func main() {
	var addr, token string

	rootCmd := &cobra.Command{
		Use:   "pollctl",
		Short: "Operate a running PingPollz live-polling server",
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:5000", "server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("PINGPOLLZ_TOKEN"), "presenter access token")

	cli := &client{addr: &addr, token: &token}

	rootCmd.AddCommand(createStatusCmd(cli))
	rootCmd.AddCommand(createPollsCmd(cli))
	rootCmd.AddCommand(createCurrentCmd(cli))
	rootCmd.AddCommand(createParticipantsCmd(cli))
	rootCmd.AddCommand(createEndCmd(cli))
	rootCmd.AddCommand(createKickCmd(cli))
	rootCmd.AddCommand(createChatCmd(cli))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	addr  *string
	token *string
}

func (c *client) do(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, *c.addr+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if *c.token != "" {
		req.Header.Set("Authorization", "Bearer "+*c.token)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createStatusCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and session stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var health struct {
				Status string `json:"status"`
			}
			if err := c.do("GET", "/ready", nil, &health); err != nil {
				color.Red("✗ server unreachable: %v", err)
				return nil
			}
			color.Green("✓ server %s", health.Status)

			var stats struct {
				ParticipantsTotal int `json:"participants_total"`
				ConnectionsOnline int `json:"connections_online"`
			}
			if err := c.do("GET", "/api/v1/stats", nil, &stats); err != nil {
				color.Yellow("  stats unavailable (presenter token required): %v", err)
				return nil
			}
			fmt.Printf("  participants: %d\n  connections:  %d\n", stats.ParticipantsTotal, stats.ConnectionsOnline)
			return nil
		},
	}
}

func createPollsCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "polls",
		Short: "List every poll, past and current",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Polls []*model.Poll `json:"polls"`
			}
			if err := c.do("GET", "/api/v1/polls", nil, &resp); err != nil {
				return err
			}
			if len(resp.Polls) == 0 {
				fmt.Println("no polls yet")
				return nil
			}
			for _, p := range resp.Polls {
				marker := color.HiBlackString("ended ")
				if p.Active {
					marker = color.GreenString("active")
				}
				fmt.Printf("%s  %s  %s\n", marker, p.ID, p.Question)
				printTally(p.Tally)
			}
			return nil
		},
	}
}

func createCurrentCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active poll and remaining time",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Poll          *model.Poll `json:"poll"`
				TimeRemaining int         `json:"time_remaining"`
			}
			if err := c.do("GET", "/api/v1/polls/current", nil, &resp); err != nil {
				return err
			}
			if resp.Poll == nil {
				fmt.Println("no active poll")
				return nil
			}
			color.Green("%s (%ds remaining)", resp.Poll.Question, resp.TimeRemaining)
			printTally(resp.Poll.Tally)
			return nil
		},
	}
}

func createParticipantsCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "participants",
		Short: "List joined participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Participants []*model.Participant `json:"participants"`
			}
			if err := c.do("GET", "/api/v1/participants", nil, &resp); err != nil {
				return err
			}
			if len(resp.Participants) == 0 {
				fmt.Println("no participants")
				return nil
			}
			for _, p := range resp.Participants {
				fmt.Printf("%s  %s  joined %s\n", p.ID, p.Name, p.JoinedAt.Format("15:04:05"))
			}
			return nil
		},
	}
}

func createEndCmd(c *client) *cobra.Command {
	var pollID string
	cmd := &cobra.Command{
		Use:   "end",
		Short: "End the current poll (presenter token required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{}
			if pollID != "" {
				body["poll_id"] = pollID
			}
			if err := c.do("POST", "/api/v1/polls/end", body, nil); err != nil {
				return err
			}
			color.Green("poll ended")
			return nil
		},
	}
	cmd.Flags().StringVar(&pollID, "poll", "", "specific poll ID (defaults to current)")
	return cmd
}

func createKickCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "kick <participant-id>",
		Short: "Remove a participant (presenter token required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do("POST", "/api/v1/participants/"+args[0]+"/kick", nil, nil); err != nil {
				return err
			}
			color.Green("participant %s kicked", args[0])
			return nil
		},
	}
}

func createChatCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Show the retained chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Messages []*model.ChatMessage `json:"messages"`
			}
			if err := c.do("GET", "/api/v1/chat/history", nil, &resp); err != nil {
				return err
			}
			for _, m := range resp.Messages {
				sender := m.Sender
				if m.Role == model.RolePresenter {
					sender = color.CyanString(sender)
				}
				fmt.Printf("%s %s: %s\n", m.CreatedAt.Format("15:04:05"), sender, m.Body)
			}
			return nil
		},
	}
}

func printTally(tally map[string]int) {
	labels := make([]string, 0, len(tally))
	for label := range tally {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("        %-20s %d\n", label, tally[label])
	}
}
