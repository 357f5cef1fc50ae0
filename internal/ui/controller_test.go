package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fachebot/video-insight/internal/backend"
	"github.com/fachebot/video-insight/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockBackend 模拟后端客户端
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ProcessVideo(ctx context.Context, url string) (*backend.ProcessResponse, error) {
	args := m.Called(ctx, url)
	resp, _ := args.Get(0).(*backend.ProcessResponse)
	return resp, args.Error(1)
}

func (m *mockBackend) Ask(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) BaseURL() string {
	return "http://backend:8000"
}

// mockNotifier 模拟通知
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Alert(msg string) {
	m.Called(msg)
}

type fakeField struct {
	mu    sync.Mutex
	value string
}

func (f *fakeField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *fakeField) SetValue(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
}

type fakeButton struct {
	mu       sync.Mutex
	disabled bool
	label    string
}

func (b *fakeButton) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

func (b *fakeButton) SetDisabled(disabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = disabled
}

func (b *fakeButton) SetLabel(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = label
}

type fakePanel struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
	scrolls int
}

func (p *fakePanel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *fakePanel) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
	p.shows++
}

func (p *fakePanel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
	p.hides++
}

func (p *fakePanel) ScrollIntoView() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
}

type fakeText struct {
	mu   sync.Mutex
	text string
}

func (t *fakeText) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
}

func (t *fakeText) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

type fakeTopics struct {
	cleared int
	topics  []backend.Topic
}

func (f *fakeTopics) Clear() {
	f.cleared++
	f.topics = nil
}

func (f *fakeTopics) AppendTopic(topic backend.Topic) {
	f.topics = append(f.topics, topic)
}

type fakeTranscript struct {
	calls    int
	segments []backend.TranscriptSegment
}

func (f *fakeTranscript) SetSegments(segments []backend.TranscriptSegment) {
	f.calls++
	f.segments = segments
}

type fakeChatLog struct {
	mu   sync.Mutex
	msgs []ChatMessage
}

func (f *fakeChatLog) Append(msg ChatMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

type fakeIcons struct {
	calls int
}

func (f *fakeIcons) CreateIcons() {
	f.calls++
}

type fakeView struct {
	urlInput         *fakeField
	processButton    *fakeButton
	loadingIndicator *fakePanel
	loadingText      *fakeText
	results          *fakePanel
	title            *fakeText
	summary          *fakeText
	topics           *fakeTopics
	transcript       *fakeTranscript
	transcriptPanel  *fakePanel
	chatInput        *fakeField
	chatLog          *fakeChatLog
	chatButton       *fakeButton
	icons            *fakeIcons
}

func newFakeView() *fakeView {
	return &fakeView{
		urlInput:         &fakeField{},
		processButton:    &fakeButton{label: "GO!"},
		loadingIndicator: &fakePanel{},
		loadingText:      &fakeText{},
		results:          &fakePanel{},
		title:            &fakeText{},
		summary:          &fakeText{},
		topics:           &fakeTopics{},
		transcript:       &fakeTranscript{},
		transcriptPanel:  &fakePanel{visible: true},
		chatInput:        &fakeField{},
		chatLog:          &fakeChatLog{},
		chatButton:       &fakeButton{},
		icons:            &fakeIcons{},
	}
}

func (f *fakeView) bindings() View {
	return View{
		URLInput:         f.urlInput,
		ProcessButton:    f.processButton,
		LoadingIndicator: f.loadingIndicator,
		LoadingText:      f.loadingText,
		Results:          f.results,
		Title:            f.title,
		Summary:          f.summary,
		Topics:           f.topics,
		Transcript:       f.transcript,
		TranscriptPanel:  f.transcriptPanel,
		ChatInput:        f.chatInput,
		ChatLog:          f.chatLog,
		ChatButton:       f.chatButton,
		Icons:            f.icons,
	}
}

func newTestController(t *testing.T) (*Controller, *fakeView, *mockBackend, *mockNotifier) {
	t.Helper()
	view := newFakeView()
	b := new(mockBackend)
	n := new(mockNotifier)
	c := NewController(b, view.bindings(), n, config.Default().Loading)
	return c, view, b, n
}

func TestProcessVideo_EmptyURL(t *testing.T) {
	inputs := []string{"", "   ", "\t\n"}
	for _, input := range inputs {
		t.Run("输入"+input, func(t *testing.T) {
			c, view, b, n := newTestController(t)
			view.urlInput.SetValue(input)
			n.On("Alert", emptyURLMessage).Return()

			err := c.ProcessVideo(context.Background())

			var inputErr *UserInputError
			require.True(t, errors.As(err, &inputErr))
			b.AssertNotCalled(t, "ProcessVideo", mock.Anything, mock.Anything)
			n.AssertNumberOfCalls(t, "Alert", 1)
			assert.Equal(t, 0, view.loadingIndicator.shows)
			assert.False(t, view.processButton.Disabled())
		})
	}
}

func TestProcessVideo_Success(t *testing.T) {
	c, view, b, n := newTestController(t)
	view.urlInput.SetValue("  https://youtu.be/abc  ")

	resp := &backend.ProcessResponse{
		Title:   "Video",
		Summary: "Summary",
		Topics: backend.Topics{
			{Title: "T1", Subtopics: backend.Subtopics{{Name: "S1", Summary: "sum1"}}},
		},
		Transcript: backend.Transcript{{Time: "00:01", Text: "hello"}},
	}
	b.On("ProcessVideo", mock.Anything, "https://youtu.be/abc").
		Run(func(args mock.Arguments) {
			// 请求期间处于加载状态
			assert.True(t, view.processButton.Disabled())
			assert.Equal(t, "WAIT...", view.processButton.label)
			assert.True(t, view.loadingIndicator.Visible())
			assert.True(t, c.Busy())
		}).
		Return(resp, nil)

	err := c.ProcessVideo(context.Background())
	require.NoError(t, err)

	n.AssertNotCalled(t, "Alert", mock.Anything)
	assert.Equal(t, 1, view.results.shows)
	assert.Equal(t, 1, view.results.scrolls)
	assert.Equal(t, "Video", view.title.get())
	assert.Equal(t, "Summary", view.summary.get())
	assert.Equal(t, []backend.Topic(resp.Topics), view.topics.topics)
	assert.Equal(t, []backend.TranscriptSegment(resp.Transcript), view.transcript.segments)
	assert.Equal(t, 1, view.icons.calls)

	// 加载状态恰好解除一次
	assert.Equal(t, 1, view.loadingIndicator.hides)
	assert.False(t, view.processButton.Disabled())
	assert.Equal(t, "GO!", view.processButton.label)
	assert.Equal(t, config.Default().Loading.DefaultText, view.loadingText.get())
	assert.False(t, c.Busy())
}

func TestProcessVideo_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"后端错误", &backend.BackendError{Message: "X"}, "Error: X\n"},
		{"服务端错误", &backend.ServerError{StatusCode: 502, Status: "502 Bad Gateway"}, "Server Error: 502 Bad Gateway"},
		{"网络错误", &backend.NetworkError{Op: "do request", Err: errors.New("refused")}, "refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, view, b, n := newTestController(t)
			view.urlInput.SetValue("https://youtu.be/abc")
			view.title.SetText("previous")

			b.On("ProcessVideo", mock.Anything, "https://youtu.be/abc").Return(nil, tt.err)
			n.On("Alert", mock.MatchedBy(func(msg string) bool {
				return assert.Contains(t, msg, tt.wantMsg) &&
					assert.Contains(t, msg, "http://backend:8000")
			})).Return()

			err := c.ProcessVideo(context.Background())
			assert.ErrorIs(t, err, tt.err)

			n.AssertNumberOfCalls(t, "Alert", 1)
			// 结果区域保持不变
			assert.Equal(t, 0, view.results.shows)
			assert.Equal(t, "previous", view.title.get())
			assert.Equal(t, 0, view.topics.cleared)

			assert.Equal(t, 1, view.loadingIndicator.hides)
			assert.False(t, view.processButton.Disabled())
			assert.False(t, c.Busy())
		})
	}
}

func TestProcessVideo_PanicStillResetsLoading(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.urlInput.SetValue("u")
	b.On("ProcessVideo", mock.Anything, "u").Run(func(args mock.Arguments) {
		panic("boom")
	})

	assert.Panics(t, func() {
		_ = c.ProcessVideo(context.Background())
	})
	assert.False(t, view.processButton.Disabled())
	assert.False(t, view.loadingIndicator.Visible())
	assert.False(t, c.Busy())
}

func TestProcessVideo_RejectsConcurrentCall(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.urlInput.SetValue("u")

	started := make(chan struct{})
	release := make(chan struct{})
	b.On("ProcessVideo", mock.Anything, "u").
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&backend.ProcessResponse{Title: "t"}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.ProcessVideo(context.Background()) }()
	<-started

	// 第一个请求尚未完成时再次提交
	assert.ErrorIs(t, c.ProcessVideo(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	b.AssertNumberOfCalls(t, "ProcessVideo", 1)
	assert.False(t, c.Busy())
}

func TestProcessVideo_ChatStaysResponsive(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.urlInput.SetValue("u")

	started := make(chan struct{})
	release := make(chan struct{})
	b.On("ProcessVideo", mock.Anything, "u").
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&backend.ProcessResponse{}, nil)
	b.On("Ask", mock.Anything, "hello").Return("hi", nil)

	done := make(chan error, 1)
	go func() { done <- c.ProcessVideo(context.Background()) }()
	<-started

	view.chatInput.SetValue("hello")
	c.SendChat(context.Background())
	assert.Len(t, view.chatLog.msgs, 2)

	close(release)
	require.NoError(t, <-done)
}

func TestSendChat_Empty(t *testing.T) {
	for _, input := range []string{"", "  ", "\n"} {
		c, view, b, _ := newTestController(t)
		view.chatInput.SetValue(input)

		c.SendChat(context.Background())

		assert.Empty(t, view.chatLog.msgs)
		b.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
	}
}

func TestSendChat_Success(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.chatInput.SetValue("  what is it?  ")

	b.On("Ask", mock.Anything, "what is it?").
		Run(func(args mock.Arguments) {
			// 用户消息立即出现，输入框清空，按钮禁用
			require.Len(t, view.chatLog.msgs, 1)
			assert.Equal(t, ChatMessage{Text: "what is it?", Sender: SenderUser}, view.chatLog.msgs[0])
			assert.Empty(t, view.chatInput.Value())
			assert.True(t, view.chatButton.Disabled())
		}).
		Return("Hi\nthere", nil)

	c.SendChat(context.Background())

	require.Len(t, view.chatLog.msgs, 2)
	reply := view.chatLog.msgs[1]
	assert.Equal(t, SenderAI, reply.Sender)
	assert.Equal(t, []string{"Hi", "there"}, reply.Lines())
	assert.False(t, view.chatButton.Disabled())
}

func TestSendChat_Failure(t *testing.T) {
	c, view, b, n := newTestController(t)
	view.chatInput.SetValue("q")
	b.On("Ask", mock.Anything, "q").Return("", &backend.NetworkError{Op: "do request", Err: errors.New("refused")})

	c.SendChat(context.Background())

	require.Len(t, view.chatLog.msgs, 2)
	assert.Equal(t, ChatMessage{Text: connectionErrorMsg, Sender: SenderAI}, view.chatLog.msgs[1])
	assert.False(t, view.chatButton.Disabled())
	n.AssertNotCalled(t, "Alert", mock.Anything)

	// 失败后仍可继续提问
	b.On("Ask", mock.Anything, "again").Return("ok", nil)
	view.chatInput.SetValue("again")
	c.SendChat(context.Background())
	assert.Len(t, view.chatLog.msgs, 4)
}

func TestSendChat_IgnoredWhileDisabled(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.chatInput.SetValue("q")
	view.chatButton.SetDisabled(true)

	c.SendChat(context.Background())

	assert.Empty(t, view.chatLog.msgs)
	assert.Equal(t, "q", view.chatInput.Value())
	b.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestToggleTranscript(t *testing.T) {
	c, view, _, _ := newTestController(t)
	original := view.transcriptPanel.Visible()

	c.ToggleTranscript()
	assert.NotEqual(t, original, view.transcriptPanel.Visible())

	c.ToggleTranscript()
	assert.Equal(t, original, view.transcriptPanel.Visible())
}

func TestInit(t *testing.T) {
	c, view, _, _ := newTestController(t)
	c.Init()
	assert.Equal(t, 1, view.icons.calls)
}

func TestChatMessage_Lines(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"single", []string{"single"}},
		{"Hi\nthere", []string{"Hi", "there"}},
		{"a\r\nb\n", []string{"a", "b", ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChatMessage{Text: tt.text}.Lines())
	}
}

func TestPrepareProcessVideo_CapturesURL(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.urlInput.SetValue("https://youtu.be/first")
	b.On("ProcessVideo", mock.Anything, "https://youtu.be/first").Return(&backend.ProcessResponse{Title: "First"}, nil)

	run, err := c.PrepareProcessVideo()
	require.NoError(t, err)

	// 准备完成后立即进入加载状态，之后改动输入框不影响本次提交
	assert.True(t, view.processButton.Disabled())
	assert.True(t, c.Busy())
	view.urlInput.SetValue("https://youtu.be/second")

	_, err = c.PrepareProcessVideo()
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, run(context.Background()))
	assert.Equal(t, "First", view.title.get())
	assert.False(t, c.Busy())
	b.AssertNumberOfCalls(t, "ProcessVideo", 1)
}

func TestPrepareSendChat_ConsumesInput(t *testing.T) {
	c, view, b, _ := newTestController(t)
	view.chatInput.SetValue("first")
	b.On("Ask", mock.Anything, "first").Return("answer", nil)

	run, ok := c.PrepareSendChat()
	require.True(t, ok)

	// 用户消息在准备阶段写入，请求尚未发出
	require.Len(t, view.chatLog.msgs, 1)
	assert.Equal(t, ChatMessage{Text: "first", Sender: SenderUser}, view.chatLog.msgs[0])
	assert.Empty(t, view.chatInput.Value())
	assert.True(t, view.chatButton.Disabled())
	b.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)

	view.chatInput.SetValue("second")
	_, ok = c.PrepareSendChat()
	assert.False(t, ok)

	run(context.Background())
	require.Len(t, view.chatLog.msgs, 2)
	assert.Equal(t, "answer", view.chatLog.msgs[1].Text)
	assert.False(t, view.chatButton.Disabled())
	b.AssertCalled(t, "Ask", mock.Anything, "first")
}
