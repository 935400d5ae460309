package meeting

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/houzhh15/discussion-host/pkg/logger"
)

// CopiedIndicatorDuration "已复制" 提示的持续时间
const CopiedIndicatorDuration = 2 * time.Second

// ClipboardFunc 向剪贴板写入文本
type ClipboardFunc func(text string) error

// SystemClipboard 通过操作系统剪贴板工具写入
func SystemClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// OSC52Clipboard 通过 OSC 52 转义序列让 w 所在终端设置剪贴板，
// 适用于没有本地剪贴板工具的 ssh 会话。
func OSC52Clipboard(w io.Writer) ClipboardFunc {
	return func(text string) error {
		seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
		_, err := io.WriteString(w, seq)
		return err
	}
}

// Copier 复制邀请链接，先用主剪贴板，失败时走备用路径。
// 任一路径成功都会点亮 "已复制" 提示，Hold 之后自动熄灭。
type Copier struct {
	Primary  ClipboardFunc
	Fallback ClipboardFunc
	Hold     time.Duration
	Logger   *slog.Logger

	mu     sync.Mutex
	copied bool
	gen    uint64
	timer  *time.Timer
}

// NewCopier 使用默认提示时长创建 Copier
func NewCopier(primary, fallback ClipboardFunc, log *slog.Logger) *Copier {
	return &Copier{
		Primary:  primary,
		Fallback: fallback,
		Hold:     CopiedIndicatorDuration,
		Logger:   log,
	}
}

// Copy 写入剪贴板，仅在主路径失败或缺失时尝试备用路径
func (c *Copier) Copy(text string) error {
	log := logger.OrDiscard(c.Logger)

	var err error
	if c.Primary != nil {
		if err = c.Primary(text); err == nil {
			c.markCopied()
			return nil
		}
		log.Debug("primary clipboard failed, using fallback", "error", err)
	}
	if c.Fallback == nil {
		if err == nil {
			err = fmt.Errorf("no clipboard configured")
		}
		return fmt.Errorf("copy invite link: %w", err)
	}
	if err := c.Fallback(text); err != nil {
		return fmt.Errorf("copy invite link: %w", err)
	}
	c.markCopied()
	return nil
}

func (c *Copier) markCopied() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.copied = true
	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	hold := c.Hold
	if hold <= 0 {
		hold = CopiedIndicatorDuration
	}
	c.timer = time.AfterFunc(hold, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen {
			c.copied = false
		}
	})
}

// Copied "已复制" 提示当前是否点亮
func (c *Copier) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}
