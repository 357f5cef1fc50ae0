package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fachebot/video-insight/internal/backend"
	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/loading"
	"github.com/fachebot/video-insight/internal/logger"
)

const (
	emptyURLMessage    = "Please enter a URL first! (USER_ERROR)"
	connectionErrorMsg = "Connection Error! (Is backend alive?)"
)

// ErrBusy 已有视频在处理中，新的处理请求被拒绝
var ErrBusy = errors.New("已有视频正在处理")

// UserInputError 用户输入不合法，未发起任何请求
type UserInputError struct {
	Message string
}

func (e *UserInputError) Error() string {
	return e.Message
}

// videoBackend 后端接口（便于测试注入 mock）
type videoBackend interface {
	ProcessVideo(ctx context.Context, url string) (*backend.ProcessResponse, error)
	Ask(ctx context.Context, question string) (string, error)
	BaseURL() string
}

// Notifier 阻塞式通知，用于向用户报告错误
type Notifier interface {
	Alert(msg string)
}

// Controller 响应用户操作的页面控制器。
// mu 相当于页面的 UI 线程：所有元素读写都在锁内进行，网络请求期间释放锁
type Controller struct {
	backend  videoBackend
	view     View
	notifier Notifier
	loading  config.Loading

	mu      sync.Mutex
	session *loading.Session
}

func NewController(b videoBackend, view View, notifier Notifier, cfg config.Loading) *Controller {
	return &Controller{
		backend:  b,
		view:     view,
		notifier: notifier,
		loading:  cfg,
	}
}

// Init 页面加载完成后调用
func (c *Controller) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Icons != nil {
		c.view.Icons.CreateIcons()
	}
	logger.Infof("[UI] System Initialized, 后端地址: %s", c.backend.BaseURL())
}

// Busy 是否有视频正在处理
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// ProcessVideo 提交输入框中的视频地址并渲染结果。
// 错误已通过通知展示给用户，返回值仅供调用方记录
func (c *Controller) ProcessVideo(ctx context.Context) error {
	run, err := c.PrepareProcessVideo()
	if err != nil {
		return err
	}
	return run(ctx)
}

// PrepareProcessVideo 在调用方协程中读取输入框并进入加载状态，
// 返回的 run 发起请求并渲染结果。成功返回后必须调用 run，否则加载状态不会结束
func (c *Controller) PrepareProcessVideo() (run func(ctx context.Context) error, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		logger.Warnf("[UI] 已有视频正在处理，忽略本次提交")
		return nil, ErrBusy
	}

	url := strings.TrimSpace(c.view.URLInput.Value())
	if url == "" {
		c.notifier.Alert(emptyURLMessage)
		return nil, &UserInputError{Message: emptyURLMessage}
	}

	c.setLoading(true)
	return func(ctx context.Context) error {
		return c.process(ctx, url)
	}, nil
}

func (c *Controller) process(ctx context.Context, url string) error {
	defer c.finishLoading()

	logger.Infof("[UI] 开始处理视频: %s", url)
	resp, err := c.backend.ProcessVideo(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		logger.Errorf("[UI] 视频处理失败: %v", err)
		c.notifier.Alert(fmt.Sprintf("Error: %s\nMake sure backend is running at %s!", err.Error(), c.backend.BaseURL()))
		return err
	}

	c.renderResults(resp)
	logger.Infof("[UI] 视频处理完成: %s", resp.Title)
	return nil
}

// SendChat 发送聊天输入框中的问题，失败时在聊天记录中提示，不返回错误
func (c *Controller) SendChat(ctx context.Context) {
	if run, ok := c.PrepareSendChat(); ok {
		run(ctx)
	}
}

// PrepareSendChat 在调用方协程中取走问题、追加到聊天记录并禁用发送按钮。
// 输入为空或按钮已禁用时 ok 为 false；ok 为 true 时必须调用 run
func (c *Controller) PrepareSendChat() (run func(ctx context.Context), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := strings.TrimSpace(c.view.ChatInput.Value())
	if text == "" || c.view.ChatButton.Disabled() {
		return nil, false
	}

	c.view.ChatLog.Append(ChatMessage{Text: text, Sender: SenderUser})
	c.view.ChatInput.SetValue("")
	c.view.ChatButton.SetDisabled(true)
	return func(ctx context.Context) {
		c.ask(ctx, text)
	}, true
}

func (c *Controller) ask(ctx context.Context, text string) {
	defer func() {
		c.mu.Lock()
		c.view.ChatButton.SetDisabled(false)
		c.mu.Unlock()
	}()

	answer, err := c.backend.Ask(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		logger.Warnf("[UI] 提问失败: %v", err)
		c.view.ChatLog.Append(ChatMessage{Text: connectionErrorMsg, Sender: SenderAI})
		return
	}
	c.view.ChatLog.Append(ChatMessage{Text: answer, Sender: SenderAI})
}

// ToggleTranscript 切换转录面板的显示状态
func (c *Controller) ToggleTranscript() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.TranscriptPanel.Visible() {
		c.view.TranscriptPanel.Hide()
	} else {
		c.view.TranscriptPanel.Show()
	}
}

// RenderResults 渲染视频处理结果
func (c *Controller) RenderResults(resp *backend.ProcessResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderResults(resp)
}

func (c *Controller) finishLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLoading(false)
}

// setLoading 切换加载状态，调用方需持有 mu
func (c *Controller) setLoading(isLoading bool) {
	if isLoading {
		c.view.ProcessButton.SetDisabled(true)
		c.view.ProcessButton.SetLabel(c.loading.BusyLabel)
		c.view.LoadingIndicator.Show()
		c.session = loading.Start(c.view.LoadingText, loading.Config{
			Interval:    c.loading.Period(),
			Facts:       c.loading.Facts,
			DefaultText: c.loading.DefaultText,
		})
		return
	}

	c.view.ProcessButton.SetDisabled(false)
	c.view.ProcessButton.SetLabel(c.loading.IdleLabel)
	c.view.LoadingIndicator.Hide()
	if c.session != nil {
		c.session.Stop()
		c.session = nil
	}
}
