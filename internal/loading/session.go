package loading

import (
	"sync"
	"time"

	"github.com/fachebot/video-insight/internal/logger"
	"github.com/robfig/cron/v3"
)

// TextTarget 轮播文案的写入目标，会在 cron 的协程中被调用
type TextTarget interface {
	SetText(text string)
}

type Config struct {
	Interval    time.Duration
	Facts       []string
	DefaultText string
}

// Session 一次加载过程中的文案轮播，由创建者独占
type Session struct {
	cron   *cron.Cron
	target TextTarget
	config Config

	mu        sync.Mutex
	factIndex int
	active    bool
}

// Start 开始按固定间隔轮播文案
func Start(target TextTarget, cfg Config) *Session {
	s := &Session{
		cron:   cron.New(),
		target: target,
		config: cfg,
		active: true,
	}
	if len(cfg.Facts) > 0 {
		s.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(s.tick))
		s.cron.Start()
	}
	logger.Debugf("[Loading] 开始轮播提示文案, 间隔 %s", cfg.Interval)
	return s
}

// tick 写入下一条文案，到末尾后回到第一条
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.target.SetText(s.config.Facts[s.factIndex%len(s.config.Facts)])
	s.factIndex++
}

// Stop 停止轮播并恢复默认文案；可重复调用。
// 返回后不会再有任何轮播写入
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.cron.Stop()
	s.target.SetText(s.config.DefaultText)
	logger.Debugf("[Loading] 停止轮播提示文案")
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// FactIndex 已展示的文案条数
func (s *Session) FactIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.factIndex
}
