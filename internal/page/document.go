package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fachebot/video-insight/internal/logger"
	"github.com/fachebot/video-insight/internal/ui"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

//go:embed index.html
var indexHTML []byte

// 宿主页面约定的元素标识
const (
	URLInputSelector        = "#videoUrl"
	ProcessButtonSelector   = "#processBtn"
	LoadingStateSelector    = "#loadingState"
	LoadingTextSelector     = "#loadingState .loading-text"
	ResultsAreaSelector     = "#resultsArea"
	TitleSelector           = "#videoTitle"
	SummarySelector         = "#mainSummary"
	TopicsSelector          = "#topicsContainer"
	TranscriptSelector      = "#transcriptBox"
	ChatInputSelector       = "#chatInput"
	ChatBoxSelector         = "#chatBox"
	ChatButtonSelector      = "#chatBtn"
	AlertBoxSelector        = "#alertBox"
	alertTextSelector       = "#alertBox .alert-text"
	refreshMetaSelector     = "head meta[http-equiv=refresh]"
	iconPlaceholderSelector = "i[data-lucide]"
)

type EventKind string

const (
	EventScroll  EventKind = "scroll"
	EventChat    EventKind = "chat"
	EventLoading EventKind = "loading"
	EventAlert   EventKind = "alert"
)

// Event 页面变更事件，在文档锁释放后派发
type Event struct {
	Kind     EventKind
	Selector string
	Text     string
	Sender   ui.Sender
	HTML     string
}

// Document 内存中的宿主页面，可并发访问
type Document struct {
	mu           sync.Mutex
	doc          *goquery.Document
	subscribers  []func(Event)
	scrollTarget string
}

// New 加载内置页面
func New() (*Document, error) {
	return Parse(bytes.NewReader(indexHTML))
}

// Parse 从自定义 HTML 加载宿主页面
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析页面失败: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Subscribe 订阅页面变更事件
func (d *Document) Subscribe(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

// Bindings 按约定的标识查找元素，生成控制器所需的视图绑定
func (d *Document) Bindings(withIcons bool) (ui.View, error) {
	required := []string{
		URLInputSelector, ProcessButtonSelector, LoadingStateSelector, LoadingTextSelector,
		ResultsAreaSelector, TitleSelector, SummarySelector, TopicsSelector, TranscriptSelector,
		ChatInputSelector, ChatBoxSelector, ChatButtonSelector,
	}

	d.mu.Lock()
	var missing []string
	for _, selector := range required {
		if d.doc.Find(selector).Length() == 0 {
			missing = append(missing, selector)
		}
	}
	d.mu.Unlock()

	if len(missing) > 0 {
		return ui.View{}, fmt.Errorf("宿主页面缺少元素: %s", strings.Join(missing, ", "))
	}

	transcript := &transcriptBox{panel: panel{element{d, TranscriptSelector}}}
	view := ui.View{
		URLInput:         &field{element{d, URLInputSelector}},
		ProcessButton:    &button{element{d, ProcessButtonSelector}},
		LoadingIndicator: &panel{element{d, LoadingStateSelector}},
		LoadingText:      &text{element: element{d, LoadingTextSelector}, event: EventLoading},
		Results:          &scrollPanel{panel{element{d, ResultsAreaSelector}}},
		Title:            &text{element: element{d, TitleSelector}},
		Summary:          &text{element: element{d, SummarySelector}},
		Topics:           &topicList{element{d, TopicsSelector}},
		Transcript:       transcript,
		TranscriptPanel:  transcript,
		ChatInput:        &field{element{d, ChatInputSelector}},
		ChatLog:          &chatLog{element{d, ChatBoxSelector}},
		ChatButton:       &button{element{d, ChatButtonSelector}},
	}
	if withIcons {
		view.Icons = &iconSet{d}
	}
	return view, nil
}

// Alert 在页面的提示框中显示通知
func (d *Document) Alert(msg string) {
	d.update(AlertBoxSelector, func(sel *goquery.Selection) *Event {
		if sel.Length() == 0 {
			logger.Warnf("[Page] 页面缺少提示框，丢弃通知: %s", msg)
			return nil
		}
		d.doc.Find(alertTextSelector).SetText(msg)
		setDisplay(sel, "block")
		return &Event{Kind: EventAlert, Selector: AlertBoxSelector, Text: msg}
	})
}

// Dismiss 关闭提示框
func (d *Document) Dismiss() {
	d.update(AlertBoxSelector, func(sel *goquery.Selection) *Event {
		d.doc.Find(alertTextSelector).SetText("")
		setDisplay(sel, "none")
		return nil
	})
}

// AlertText 当前显示的通知内容，未显示时为空
func (d *Document) AlertText() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !isVisible(d.doc.Find(AlertBoxSelector)) {
		return ""
	}
	return d.doc.Find(alertTextSelector).Text()
}

// TakeScrollTarget 取出最近一次滚动到视野内的元素标识
func (d *Document) TakeScrollTarget() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.scrollTarget
	d.scrollTarget = ""
	return target
}

// Render 输出整个页面；refresh > 0 时附加自动刷新
func (d *Document) Render(w io.Writer, refresh int) error {
	d.mu.Lock()
	if refresh > 0 {
		d.doc.Find("head").AppendHtml(fmt.Sprintf(`<meta http-equiv="refresh" content="%d">`, refresh))
	}
	html, err := d.doc.Html()
	d.doc.Find(refreshMetaSelector).Remove()
	d.mu.Unlock()

	if err != nil {
		return fmt.Errorf("渲染页面失败: %w", err)
	}
	_, err = io.WriteString(w, html)
	return err
}

// Find 在锁内读取选择器匹配的元素
func (d *Document) Find(selector string, fn func(sel *goquery.Selection)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc.Find(selector))
}

// Markdown 将页面中的一个区域转换为 Markdown 文本
func (d *Document) Markdown(selector string) (string, error) {
	d.mu.Lock()
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		d.mu.Unlock()
		return "", fmt.Errorf("页面中不存在元素 %s", selector)
	}
	html, err := goquery.OuterHtml(sel.First())
	d.mu.Unlock()

	if err != nil {
		return "", err
	}
	return ToMarkdown(html)
}

// ToMarkdown 将 HTML 片段转换为 Markdown 文本
func ToMarkdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("转换 Markdown 失败: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// update 在锁内修改元素，锁释放后派发事件
func (d *Document) update(selector string, fn func(sel *goquery.Selection) *Event) {
	d.mu.Lock()
	ev := fn(d.doc.Find(selector))
	subscribers := append([]func(Event){}, d.subscribers...)
	d.mu.Unlock()

	if ev == nil {
		return
	}
	for _, subscriber := range subscribers {
		subscriber(*ev)
	}
}
