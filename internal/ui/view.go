package ui

import "github.com/fachebot/video-insight/internal/backend"

// 页面元素的绑定接口。实现需要支持并发调用：加载文案会在轮播协程中写入。

// Field 文本输入框
type Field interface {
	Value() string
	SetValue(value string)
}

// Button 触发按钮
type Button interface {
	Disabled() bool
	SetDisabled(disabled bool)
	SetLabel(label string)
}

// Panel 可显示/隐藏的区域
type Panel interface {
	Visible() bool
	Show()
	Hide()
}

// ScrollPanel 可滚动到视野内的区域
type ScrollPanel interface {
	Panel
	ScrollIntoView()
}

// Text 纯文本区域
type Text interface {
	SetText(text string)
}

// TopicList 话题容器
type TopicList interface {
	Clear()
	AppendTopic(topic backend.Topic)
}

// TranscriptList 转录容器
type TranscriptList interface {
	SetSegments(segments []backend.TranscriptSegment)
}

// ChatLog 聊天记录
type ChatLog interface {
	Append(msg ChatMessage)
}

// Icons 图标渲染器
type Icons interface {
	CreateIcons()
}

// View 控制器依赖的全部页面元素，由宿主页面在构造时注入
type View struct {
	URLInput         Field
	ProcessButton    Button
	LoadingIndicator Panel
	LoadingText      Text
	Results          ScrollPanel
	Title            Text
	Summary          Text
	Topics           TopicList
	Transcript       TranscriptList
	TranscriptPanel  Panel
	ChatInput        Field
	ChatLog          ChatLog
	ChatButton       Button

	// Icons 可以为 nil，此时跳过图标渲染
	Icons Icons
}
