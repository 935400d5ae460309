package meeting

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/houzhh15/discussion-host/pkg/logger"
)

// webhookExecutor *discordgo.Session 中用于发布通知的部分
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer 通过 Discord 频道 webhook 发布新会议邀请
type DiscordAnnouncer struct {
	webhookID string
	token     string
	silent    bool
	session   webhookExecutor
	log       *slog.Logger
}

// NewDiscordAnnouncer 解析形如 https://discord.com/api/webhooks/<id>/<token> 的 webhook 地址
func NewDiscordAnnouncer(webhookURL string, silent bool, log *slog.Logger) (*DiscordAnnouncer, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	// webhook 不需要 bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordAnnouncer{
		webhookID: id,
		token:     token,
		silent:    silent,
		session:   session,
		log:       logger.OrDiscard(log).With("component", "discord"),
	}, nil
}

func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no /webhooks/<id>/<token> path", raw)
}

// Announce 发布邀请，失败只记录日志，不会反馈给用户
func (a *DiscordAnnouncer) Announce(ctx context.Context, cfg Config, h Handle) {
	params := &discordgo.WebhookParams{
		Username: "Option.ai",
		Embeds: []*discordgo.MessageEmbed{{
			Type:        discordgo.EmbedTypeRich,
			Title:       "Join Discussion: " + cfg.Topic,
			URL:         h.InviteLink,
			Description: InviteMessage(cfg, h),
		}},
	}
	if a.silent {
		params.Flags = discordgo.MessageFlagsSuppressNotifications
	}

	if _, err := a.session.WebhookExecute(a.webhookID, a.token, false, params, discordgo.WithContext(ctx)); err != nil {
		a.log.Warn("could not announce meeting", "meeting_id", h.MeetingID, "error", err)
		return
	}
	a.log.Info("meeting announced", "meeting_id", h.MeetingID)
}
