package ui

import (
	"github.com/fachebot/video-insight/internal/backend"
	"github.com/fachebot/video-insight/internal/logger"
)

const (
	defaultTitle   = "Unknown Title"
	defaultSummary = "No summary provided."
)

// renderResults 调用方需持有 mu。缺失或格式异常的字段按默认值或空内容渲染
func (c *Controller) renderResults(resp *backend.ProcessResponse) {
	if resp == nil {
		resp = &backend.ProcessResponse{}
	}

	c.view.Results.Show()

	title := resp.Title
	if title == "" {
		title = defaultTitle
	}
	c.view.Title.SetText(title)

	summary := resp.Summary
	if summary == "" {
		summary = defaultSummary
	}
	c.view.Summary.SetText(summary)

	// 话题列表整体重建
	c.view.Topics.Clear()
	for _, topic := range resp.Topics {
		c.view.Topics.AppendTopic(topic)
	}

	// 响应中没有转录时保留原内容
	if resp.Transcript != nil {
		c.view.Transcript.SetSegments(resp.Transcript)
	}

	if c.view.Icons != nil {
		c.view.Icons.CreateIcons()
	} else {
		logger.Warnf("[UI] 图标库未加载，跳过图标渲染")
	}

	c.view.Results.ScrollIntoView()
}
