package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/logger"
)

const (
	MaxLineLength = 500 // 控制台单条通知最大长度
)

// pageAlerter 页面提示框
type pageAlerter interface {
	Alert(msg string)
}

type Notifier struct {
	mode    string
	console io.Writer
	page    pageAlerter
	mu      sync.Mutex
}

func NewNotifier(cfg *config.Notify, console io.Writer, page pageAlerter) *Notifier {
	return &Notifier{
		mode:    cfg.Mode,
		console: console,
		page:    page,
	}
}

// Alert 发送阻塞式通知
func (n *Notifier) Alert(msg string) {
	if msg == "" {
		return
	}

	switch n.mode {
	case config.NotifyConsole:
		if err := n.alertConsole(msg); err != nil {
			logger.Errorf("[Notify] 控制台通知失败: %v", err)
		}
	case config.NotifyPage:
		n.alertPage(msg)
	case config.NotifyBoth:
		if err := n.alertConsole(msg); err != nil {
			logger.Errorf("[Notify] 控制台通知失败: %v", err)
		}
		n.alertPage(msg)
	default:
		logger.Warnf("[Notify] 未知的通知模式: %s", n.mode)
	}
}

// alertConsole 输出到控制台
func (n *Notifier) alertConsole(msg string) error {
	if n.console == nil {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, part := range n.splitMessage(msg) {
		for _, line := range strings.Split(part, "\n") {
			if _, err := fmt.Fprintf(n.console, "!! %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

// alertPage 显示在页面提示框中
func (n *Notifier) alertPage(msg string) {
	if n.page == nil {
		logger.Warnf("[Notify] 未配置页面提示框")
		return
	}
	n.page.Alert(msg)
}

// splitMessage 将消息按长度拆分为多条
func (n *Notifier) splitMessage(content string) []string {
	if len(content) <= MaxLineLength {
		return []string{content}
	}

	// 按段落拆分
	paragraphs := strings.Split(content, "\n\n")
	if len(paragraphs) == 1 {
		// 如果没有段落分隔，按换行拆分
		paragraphs = strings.Split(content, "\n")
	}

	messages := make([]string, 0)
	currentMsg := ""

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		testMsg := currentMsg
		if testMsg != "" {
			testMsg += "\n"
		}
		testMsg += para

		if len(testMsg) <= MaxLineLength {
			currentMsg = testMsg
			continue
		}

		// 当前消息已满，保存并开始新消息
		if currentMsg != "" {
			messages = append(messages, currentMsg)
			currentMsg = ""
		}
		// 单个段落超长时按长度硬切
		for len(para) > MaxLineLength {
			cut := cutIndex(para, MaxLineLength)
			messages = append(messages, para[:cut])
			para = para[cut:]
		}
		currentMsg = para
	}

	if currentMsg != "" {
		messages = append(messages, currentMsg)
	}

	return messages
}

// cutIndex 返回不超过 limit 且不截断 UTF-8 字符的切分位置
func cutIndex(s string, limit int) int {
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
