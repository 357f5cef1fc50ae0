package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/logger"

	"github.com/google/uuid"
)

const (
	processPath = "/process_video"
	askPath     = "/ask"
)

// httpDoer 便于测试替换 HTTP 客户端
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    httpDoer
}

// NewClient 创建后端客户端；transport 为 nil 时使用默认传输层
func NewClient(cfg *config.Backend, transport http.RoundTripper) *Client {
	httpClient := &http.Client{}
	if transport != nil {
		httpClient.Transport = transport
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.RequestTimeout(),
		http:    httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProcessVideo 提交视频地址并等待处理结果
func (c *Client) ProcessVideo(ctx context.Context, url string) (*ProcessResponse, error) {
	var resp ProcessResponse
	if err := c.post(ctx, processPath, ProcessRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &BackendError{Message: resp.Error}
	}
	return &resp, nil
}

// Ask 针对已处理的视频提问，返回回答文本
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var resp AskResponse
	if err := c.post(ctx, askPath, AskRequest{Question: question}, &resp); err != nil {
		return "", err
	}
	if resp.Answer == nil {
		return "", &NetworkError{Op: "decode response", Err: errors.New("响应缺少 answer 字段")}
	}
	return *resp.Answer, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: "new request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger.Debugf("[Backend] 发送请求 %s%s, requestID=%s", c.baseURL, path, requestID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "do request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		logger.Warnf("[Backend] %s 返回异常状态 %s, requestID=%s", path, status, requestID)
		return &ServerError{StatusCode: resp.StatusCode, Status: status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &NetworkError{Op: "decode response", Err: err}
	}

	logger.Debugf("[Backend] %s 完成, 耗时 %s, requestID=%s", path, time.Since(start).Round(time.Millisecond), requestID)
	return nil
}
