package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/logger"
	"github.com/fachebot/video-insight/internal/page"
	"github.com/fachebot/video-insight/internal/ui"
)

// 页面在有请求处理中时的自动刷新间隔（秒）
const refreshSeconds = 2

type Server struct {
	cfg        *config.Web
	doc        *page.Document
	view       ui.View
	controller *ui.Controller
	handler    http.Handler

	// submitMu 保证写入输入框与控制器读取之间不被其他请求插入
	submitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(cfg *config.Web, doc *page.Document, view ui.View, controller *ui.Controller) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg,
		doc:        doc,
		view:       view,
		controller: controller,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/actions/process", s.handleProcess)
	mux.HandleFunc("/actions/chat", s.handleChat)
	mux.HandleFunc("/actions/transcript", s.handleTranscript)
	mux.HandleFunc("/actions/dismiss", s.handleDismiss)
	return mux
}

// ListenAndServe 启动 HTTP 服务，ctx 取消后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[Web] 服务已启动: http://%s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	logger.Infof("[Web] 服务已停止")
	return err
}

// Close 取消后台任务并等待其退出
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	refresh := 0
	if s.view.ProcessButton.Disabled() || s.view.ChatButton.Disabled() {
		refresh = refreshSeconds
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.doc.Render(w, refresh); err != nil {
		logger.Errorf("[Web] 输出页面失败: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submitMu.Lock()
	// 处理中按钮已禁用，不再改动输入框
	if s.view.ProcessButton.Disabled() {
		s.submitMu.Unlock()
		logger.Debugf("[Web] 已有视频正在处理，忽略本次提交")
		s.redirect(w, r)
		return
	}

	s.view.URLInput.SetValue(r.PostForm.Get("url"))
	run, err := s.controller.PrepareProcessVideo()
	s.submitMu.Unlock()
	if err != nil {
		logger.Debugf("[Web] 处理视频未开始: %v", err)
		s.redirect(w, r)
		return
	}
	s.runAction(func(ctx context.Context) {
		if err := run(ctx); err != nil {
			logger.Debugf("[Web] 处理视频未完成: %v", err)
		}
	})
	s.redirect(w, r)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submitMu.Lock()
	if s.view.ChatButton.Disabled() {
		s.submitMu.Unlock()
		s.redirect(w, r)
		return
	}

	s.view.ChatInput.SetValue(r.PostForm.Get("question"))
	run, ok := s.controller.PrepareSendChat()
	s.submitMu.Unlock()
	if ok {
		s.runAction(run)
	}
	s.redirect(w, r)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	s.controller.ToggleTranscript()
	http.Redirect(w, r, "/#transcriptBox", http.StatusSeeOther)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	s.doc.Dismiss()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// runAction 在后台执行动作，最多等待 SettleDelay 后返回
func (s *Server) runAction(action func(ctx context.Context)) {
	done := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		action(s.ctx)
	}()

	timer := time.NewTimer(s.cfg.Settle())
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if id := s.doc.TakeScrollTarget(); id != "" {
		target = "/#" + id
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("[Web] 写入响应失败: %v", err)
	}
}
