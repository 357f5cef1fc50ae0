package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fachebot/video-insight/internal/backend"
	"github.com/fachebot/video-insight/internal/ui"
)

const aiLabel = "AI Chan:"

type element struct {
	d        *Document
	selector string
}

func (e element) read(fn func(sel *goquery.Selection)) {
	e.d.Find(e.selector, fn)
}

func (e element) write(fn func(sel *goquery.Selection)) {
	e.d.update(e.selector, func(sel *goquery.Selection) *Event {
		fn(sel)
		return nil
	})
}

// field 对应 <input>，值保存在 value 属性中
type field struct {
	element
}

func (f *field) Value() (value string) {
	f.read(func(sel *goquery.Selection) {
		value = sel.AttrOr("value", "")
	})
	return value
}

func (f *field) SetValue(value string) {
	f.write(func(sel *goquery.Selection) {
		sel.SetAttr("value", value)
	})
}

type button struct {
	element
}

func (b *button) Disabled() (disabled bool) {
	b.read(func(sel *goquery.Selection) {
		_, disabled = sel.Attr("disabled")
	})
	return disabled
}

func (b *button) SetDisabled(disabled bool) {
	b.write(func(sel *goquery.Selection) {
		if disabled {
			sel.SetAttr("disabled", "disabled")
		} else {
			sel.RemoveAttr("disabled")
		}
	})
}

func (b *button) SetLabel(label string) {
	b.write(func(sel *goquery.Selection) {
		sel.SetText(label)
	})
}

// panel 通过内联 style 的 display 控制显示
type panel struct {
	element
}

func (p *panel) Visible() (visible bool) {
	p.read(func(sel *goquery.Selection) {
		visible = isVisible(sel)
	})
	return visible
}

func (p *panel) Show() {
	p.write(func(sel *goquery.Selection) {
		setDisplay(sel, "block")
	})
}

func (p *panel) Hide() {
	p.write(func(sel *goquery.Selection) {
		setDisplay(sel, "none")
	})
}

type scrollPanel struct {
	panel
}

func (p *scrollPanel) ScrollIntoView() {
	p.d.update(p.selector, func(sel *goquery.Selection) *Event {
		p.d.scrollTarget = strings.TrimPrefix(p.selector, "#")
		return &Event{Kind: EventScroll, Selector: p.selector}
	})
}

// text 纯文本元素；event 非空时写入后派发事件
type text struct {
	element
	event EventKind
}

func (t *text) SetText(value string) {
	t.d.update(t.selector, func(sel *goquery.Selection) *Event {
		sel.SetText(value)
		if t.event == "" {
			return nil
		}
		return &Event{Kind: t.event, Selector: t.selector, Text: value}
	})
}

type topicList struct {
	element
}

func (l *topicList) Clear() {
	l.write(func(sel *goquery.Selection) {
		sel.Empty()
	})
}

func (l *topicList) AppendTopic(topic backend.Topic) {
	l.write(func(sel *goquery.Selection) {
		sel.AppendHtml(topicHTML(topic))
	})
}

// transcriptBox 既是转录列表，也是可切换显示的面板
type transcriptBox struct {
	panel
}

func (b *transcriptBox) SetSegments(segments []backend.TranscriptSegment) {
	b.write(func(sel *goquery.Selection) {
		var sb strings.Builder
		for _, segment := range segments {
			sb.WriteString(segmentHTML(segment))
		}
		sel.SetHtml(sb.String())
	})
}

type chatLog struct {
	element
}

func (l *chatLog) Append(msg ui.ChatMessage) {
	l.d.update(l.selector, func(sel *goquery.Selection) *Event {
		html := messageHTML(msg)
		sel.AppendHtml(html)
		return &Event{Kind: EventChat, Selector: l.selector, Text: msg.Text, Sender: msg.Sender, HTML: html}
	})
}

// iconSet 将 <i data-lucide> 占位符替换为字符图标
type iconSet struct {
	d *Document
}

var iconGlyphs = map[string]string{
	"star":           "★",
	"video":          "▶",
	"list-tree":      "☰",
	"scroll-text":    "✎",
	"message-circle": "✉",
}

func (s *iconSet) CreateIcons() {
	s.d.update(iconPlaceholderSelector, func(sel *goquery.Selection) *Event {
		sel.Each(func(_ int, icon *goquery.Selection) {
			glyph, ok := iconGlyphs[icon.AttrOr("data-lucide", "")]
			if !ok {
				glyph = "•"
			}
			icon.SetText(glyph)
			icon.SetAttr("data-rendered", "true")
		})
		return nil
	})
}

func isVisible(sel *goquery.Selection) bool {
	style := strings.ReplaceAll(sel.AttrOr("style", ""), " ", "")
	return !strings.Contains(style, "display:none")
}

// setDisplay 替换内联 style 中的 display，保留其它声明
func setDisplay(sel *goquery.Selection, display string) {
	var decls []string
	for _, decl := range strings.Split(sel.AttrOr("style", ""), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" || strings.HasPrefix(strings.ReplaceAll(decl, " ", ""), "display:") {
			continue
		}
		decls = append(decls, decl)
	}
	decls = append(decls, "display: "+display)
	sel.SetAttr("style", strings.Join(decls, "; "))
}

// escapeHTML 对文本进行 HTML 转义，防止注入及破坏标签
func escapeHTML(text string) string {
	result := strings.ReplaceAll(text, "&", "&amp;")
	result = strings.ReplaceAll(result, "<", "&lt;")
	result = strings.ReplaceAll(result, ">", "&gt;")
	result = strings.ReplaceAll(result, "\"", "&quot;")
	return result
}

func topicHTML(topic backend.Topic) string {
	var sb strings.Builder
	sb.WriteString(`<div class="topic-item">`)
	sb.WriteString(`<div class="topic-header"><i data-lucide="star" width="16"></i> `)
	sb.WriteString(escapeHTML(topic.Title))
	sb.WriteString(`</div><div class="subtopic-list">`)
	for _, sub := range topic.Subtopics {
		sb.WriteString(fmt.Sprintf(
			`<div class="subtopic"><strong>%s</strong><br/><span class="subtopic-summary">%s</span></div>`,
			escapeHTML(sub.Name), escapeHTML(sub.Summary),
		))
	}
	sb.WriteString(`</div></div>`)
	return sb.String()
}

func segmentHTML(segment backend.TranscriptSegment) string {
	return fmt.Sprintf(`<div class="segment"><span class="segment-time">%s</span> %s</div>`,
		escapeHTML(segment.Time), escapeHTML(segment.Text))
}

func messageHTML(msg ui.ChatMessage) string {
	if msg.Sender != ui.SenderAI {
		return fmt.Sprintf(`<div class="msg %s">%s</div>`, escapeHTML(string(msg.Sender)), escapeHTML(msg.Text))
	}

	lines := msg.Lines()
	for i, line := range lines {
		lines[i] = escapeHTML(line)
	}
	return fmt.Sprintf(`<div class="msg ai"><strong>%s</strong> %s</div>`, aiLabel, strings.Join(lines, "<br/>"))
}
