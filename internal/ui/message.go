package ui

import "strings"

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage 聊天记录中的一条消息，只用于渲染
type ChatMessage struct {
	Text   string
	Sender Sender
}

// Lines 按换行拆分消息，渲染时每行之间插入换行
func (m ChatMessage) Lines() []string {
	text := strings.ReplaceAll(m.Text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
