package meeting

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	shareCfg    = Config{Topic: "Remote & hybrid work", Duration: 10, Participants: 4}
	shareHandle = Handle{MeetingID: "m-9", InviteLink: "https://option.ai/join/m-9"}
)

func TestEmailURL(t *testing.T) {
	raw := EmailURL(shareCfg, shareHandle)
	require.True(t, strings.HasPrefix(raw, "mailto:?subject="))
	assert.NotContains(t, raw, "+", "spaces are encoded as %20")

	q, err := url.ParseQuery(strings.TrimPrefix(raw, "mailto:?"))
	require.NoError(t, err)
	assert.Equal(t, "Join Discussion: Remote & hybrid work", q.Get("subject"))
	body := q.Get("body")
	assert.Contains(t, body, `You're invited to join a discussion about "Remote & hybrid work"!`)
	assert.Contains(t, body, "• Duration: 10 minutes\n")
	assert.Contains(t, body, "• Participants: 4 people\n")
	assert.Contains(t, body, "Join the discussion: https://option.ai/join/m-9")
}

func TestWhatsAppURL(t *testing.T) {
	raw := WhatsAppURL(shareCfg, shareHandle)
	require.True(t, strings.HasPrefix(raw, "https://wa.me/?text="))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, InviteMessage(shareCfg, shareHandle), u.Query().Get("text"))
}

func TestQRCodeURL(t *testing.T) {
	assert.Equal(t,
		"https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=https%3A%2F%2Foption.ai%2Fjoin%2Fm-9",
		QRCodeURL(shareHandle))
}

func TestShare(t *testing.T) {
	links := Share(shareCfg, shareHandle)
	assert.Equal(t, shareHandle.InviteLink, links.InviteLink)
	assert.Equal(t, EmailURL(shareCfg, shareHandle), links.Email)
	assert.Equal(t, WhatsAppURL(shareCfg, shareHandle), links.WhatsApp)
	assert.Equal(t, QRCodeURL(shareHandle), links.QRCode)
}

func TestReport(t *testing.T) {
	cfg := shareCfg
	cfg.Models = []string{"GPT-4", "Claude"}
	now := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)

	r := Report(cfg, shareHandle, now)
	assert.Contains(t, r, "Topic: Remote & hybrid work\n")
	assert.Contains(t, r, "AI Models: GPT-4, Claude\n")
	assert.Contains(t, r, "Created: 2025-03-04 09:30:00\n")
	assert.Contains(t, r, "Invite Link: https://option.ai/join/m-9\n")
	assert.Equal(t, "meeting-m-9.txt", ReportFileName(shareHandle))
}
