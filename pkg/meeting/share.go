package meeting

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// QRCodeService 将邀请链接渲染为二维码图片
const QRCodeService = "https://api.qrserver.com/v1/create-qr-code/"

// escapeComponent 对 URL 查询值做百分号编码，空格编码为 %20 以便邮件与聊天客户端原样显示
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EmailURL 生成邀请参会的 mailto: 链接
func EmailURL(cfg Config, h Handle) string {
	subject := "Join Discussion: " + cfg.Topic
	body := fmt.Sprintf("You're invited to join a discussion about \"%s\"!\n\n", cfg.Topic) +
		"Meeting Details:\n" +
		fmt.Sprintf("• Topic: %s\n", cfg.Topic) +
		fmt.Sprintf("• Duration: %d minutes\n", cfg.Duration) +
		fmt.Sprintf("• Participants: %d people\n\n", cfg.Participants) +
		fmt.Sprintf("Join the discussion: %s\n\n", h.InviteLink) +
		"Powered by Option.ai - AI Discussion Platform"
	return "mailto:?subject=" + escapeComponent(subject) + "&body=" + escapeComponent(body)
}

// WhatsAppURL 生成带邀请消息的 wa.me 深链接
func WhatsAppURL(cfg Config, h Handle) string {
	return "https://wa.me/?text=" + escapeComponent(InviteMessage(cfg, h))
}

// InviteMessage 用于聊天应用和 webhook 通知的简短邀请消息
func InviteMessage(cfg Config, h Handle) string {
	return fmt.Sprintf("🎯 Join Discussion: \"%s\"\n\n", cfg.Topic) +
		fmt.Sprintf("📅 Duration: %d minutes\n", cfg.Duration) +
		fmt.Sprintf("👥 Participants: %d people\n\n", cfg.Participants) +
		fmt.Sprintf("🔗 Join here: %s\n\n", h.InviteLink) +
		"Powered by Option.ai 🤖"
}

// QRCodeURL 生成邀请链接的 200x200 二维码图片地址
func QRCodeURL(h Handle) string {
	return QRCodeService + "?size=200x200&data=" + escapeComponent(h.InviteLink)
}

// ShareLinks 汇总所有对外分享目标
type ShareLinks struct {
	InviteLink string `json:"invite_link"`
	Email      string `json:"email"`
	WhatsApp   string `json:"whatsapp"`
	QRCode     string `json:"qr_code"`
}

// Share 返回会议的全部分享目标
func Share(cfg Config, h Handle) ShareLinks {
	return ShareLinks{
		InviteLink: h.InviteLink,
		Email:      EmailURL(cfg, h),
		WhatsApp:   WhatsAppURL(cfg, h),
		QRCode:     QRCodeURL(h),
	}
}

// ReportFileName 会议报告的下载文件名
func ReportFileName(h Handle) string {
	return "meeting-" + h.MeetingID + ".txt"
}

// Report 生成设置完成后可下载的纯文本会议报告
func Report(cfg Config, h Handle, now time.Time) string {
	var b strings.Builder
	b.WriteString("Option.ai - Discussion Meeting\n")
	b.WriteString("==============================\n\n")
	fmt.Fprintf(&b, "Topic: %s\n", cfg.Topic)
	fmt.Fprintf(&b, "Duration: %d minutes\n", cfg.Duration)
	fmt.Fprintf(&b, "Participants: %d people\n", cfg.Participants)
	if len(cfg.Models) > 0 {
		fmt.Fprintf(&b, "AI Models: %s\n", strings.Join(cfg.Models, ", "))
	}
	fmt.Fprintf(&b, "Created: %s\n\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Meeting ID: %s\n", h.MeetingID)
	fmt.Fprintf(&b, "Invite Link: %s\n", h.InviteLink)
	fmt.Fprintf(&b, "QR Code: %s\n\n", QRCodeURL(h))
	b.WriteString("---\nGenerated by Option.ai - AI-Powered Discussion Platform\n")
	return b.String()
}
