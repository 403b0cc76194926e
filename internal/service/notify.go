package service

import (
	"fmt"
	"log"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// Notifier mirrors poll lifecycle events into a Discord channel so an
// audience outside the live session can follow along. A nil Notifier is
// valid and does nothing; delivery failures are logged and swallowed.
type Notifier struct {
	session   *discordgo.Session
	channelID string
}

// NewNotifier returns nil when no token or channel is configured.
func NewNotifier(token, channelID string) (*Notifier, error) {
	if token == "" || channelID == "" {
		log.Println("[Notify] Discord not configured, notifier disabled")
		return nil, nil
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return &Notifier{session: s, channelID: channelID}, nil
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	_ = n.session.Close()
}

func (n *Notifier) PollStarted(p *model.Poll) {
	if n == nil {
		return
	}
	go n.send(fmt.Sprintf("📊 Poll started: **%s** (%d options, %ds)", p.Question, len(p.Options), p.MaxTime))
}

func (n *Notifier) PollEnded(p *model.Poll) {
	if n == nil {
		return
	}

	labels := make([]string, 0, len(p.Tally))
	for label := range p.Tally {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	msg := fmt.Sprintf("🏁 Poll ended: **%s**", p.Question)
	for _, label := range labels {
		msg += fmt.Sprintf("\n• %s: %d", label, p.Tally[label])
	}
	go n.send(msg)
}

func (n *Notifier) send(content string) {
	if _, err := n.session.ChannelMessageSend(n.channelID, content); err != nil {
		log.Printf("[Notify] Discord send failed: %v", err)
	}
}
