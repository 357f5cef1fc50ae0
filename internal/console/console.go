package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fachebot/video-insight/internal/logger"
	"github.com/fachebot/video-insight/internal/page"
	"github.com/fachebot/video-insight/internal/ui"
)

const usage = `Commands:
  /process <url>   analyze a video (alias /p)
  /transcript      show or hide the transcript (alias /t)
  /help            show this help
  /quit            exit
Any other text is sent to the chat.`

// resultSelectors 结果区域滚动到视野内时依次输出的部分
var resultSelectors = []string{page.TitleSelector, page.SummarySelector, page.TopicsSelector}

// Console 终端前端：读取命令驱动控制器，并把页面变更以 Markdown 输出
type Console struct {
	in         io.Reader
	out        io.Writer
	doc        *page.Document
	view       ui.View
	controller *ui.Controller

	questions chan string

	mu sync.Mutex
	wg sync.WaitGroup
}

// 排队等待发送的问题上限，超出时读取协程阻塞
const questionQueueSize = 32

func New(in io.Reader, out io.Writer, doc *page.Document, view ui.View, controller *ui.Controller) *Console {
	c := &Console{
		in:         in,
		out:        out,
		doc:        doc,
		view:       view,
		controller: controller,
		questions:  make(chan string, questionQueueSize),
	}
	doc.Subscribe(c.handleEvent)
	return c
}

// Run 读取输入直到 /quit、EOF 或 ctx 取消，返回前等待后台任务结束
func (c *Console) Run(ctx context.Context) error {
	defer c.wg.Wait()
	defer close(c.questions)

	c.background(func() { c.chatLoop(ctx) })

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.println(usage)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("读取输入失败: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := c.handleLine(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help", "/h":
		c.println(usage)
	case "/process", "/p":
		c.process(ctx, arg)
	case "/transcript", "/t":
		c.toggleTranscript()
	default:
		if strings.HasPrefix(command, "/") {
			c.println(fmt.Sprintf("Unknown command %s, type /help", command))
			return false
		}
		c.chat(ctx, line)
	}
	return false
}

// process 在读取协程中完成输入读取，下一行输入不会覆盖尚未提交的地址
func (c *Console) process(ctx context.Context, url string) {
	if c.view.ProcessButton.Disabled() {
		c.println("Still working on the previous video...")
		return
	}

	c.view.URLInput.SetValue(url)
	run, err := c.controller.PrepareProcessVideo()
	if errors.Is(err, ui.ErrBusy) {
		c.println("Still working on the previous video...")
		return
	}
	if err != nil {
		logger.Debugf("[Console] 处理视频未开始: %v", err)
		return
	}

	c.background(func() {
		if err := run(ctx); err != nil {
			logger.Debugf("[Console] 处理视频未完成: %v", err)
		}
	})
}

// chat 将问题排队，逐个发送，上一个回答到达前不会覆盖输入框
func (c *Console) chat(ctx context.Context, question string) {
	select {
	case c.questions <- question:
	case <-ctx.Done():
	}
}

func (c *Console) chatLoop(ctx context.Context) {
	for question := range c.questions {
		if ctx.Err() != nil {
			logger.Debugf("[Console] 已退出，丢弃问题: %s", question)
			continue
		}

		c.view.ChatInput.SetValue(question)
		run, ok := c.controller.PrepareSendChat()
		if !ok {
			continue
		}
		run(ctx)
	}
}

func (c *Console) toggleTranscript() {
	c.controller.ToggleTranscript()
	if !c.view.TranscriptPanel.Visible() {
		c.println("Transcript hidden.")
		return
	}
	c.printRegion(page.TranscriptSelector, "Transcript is empty.")
}

func (c *Console) background(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// handleEvent 输出页面变更
func (c *Console) handleEvent(ev page.Event) {
	switch ev.Kind {
	case page.EventLoading:
		c.println("... " + ev.Text)
	case page.EventChat:
		md, err := page.ToMarkdown(ev.HTML)
		if err != nil {
			logger.Warnf("[Console] 转换聊天消息失败: %v", err)
			md = ev.Text
		}
		c.println(md)
	case page.EventScroll:
		if ev.Selector != page.ResultsAreaSelector {
			return
		}
		for _, selector := range resultSelectors {
			c.printRegion(selector, "")
		}
		if c.view.TranscriptPanel.Visible() {
			c.printRegion(page.TranscriptSelector, "")
		}
	}
}

// printRegion 以 Markdown 输出页面区域，内容为空时输出 placeholder
func (c *Console) printRegion(selector, placeholder string) {
	md, err := c.doc.Markdown(selector)
	if err != nil {
		logger.Warnf("[Console] 读取页面区域失败: %v", err)
		return
	}
	if md == "" {
		md = placeholder
	}
	if md != "" {
		c.println(md)
	}
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.out, s); err != nil {
		logger.Errorf("[Console] 输出失败: %v", err)
	}
}
