package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeConsole = "console"
	ModeWeb     = "web"

	NotifyConsole = "console"
	NotifyPage    = "page"
	NotifyBoth    = "both"
)

// DefaultFacts 加载期间轮播的提示文案
var DefaultFacts = []string{
	"AI Fact: Whisper uses 1.55 billion parameters! (Wait, I'm using base model...)",
	"Did you know? YouTube uploads 500 hours of video every minute.",
	"Processing vectors... normalizing tensors... eating RAM...",
	"Hold tight! Generating knowledge from chaos.",
	"Almost there! Just connecting the neural dots.",
}

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type Backend struct {
	BaseURL string `yaml:"BaseURL"` // 后端服务地址，如 http://127.0.0.1:8000
	Timeout int    `yaml:"Timeout"` // 单次请求超时（秒），0 表示不限制
}

type Loading struct {
	Interval    int      `yaml:"Interval"`    // 文案轮播间隔（秒），默认 3
	DefaultText string   `yaml:"DefaultText"` // 停止轮播后恢复的文案
	BusyLabel   string   `yaml:"BusyLabel"`   // 处理中按钮文字
	IdleLabel   string   `yaml:"IdleLabel"`   // 空闲时按钮文字
	Facts       []string `yaml:"Facts"`
}

type Page struct {
	Icons bool `yaml:"Icons"` // 是否渲染图标
}

type Notify struct {
	Mode string `yaml:"Mode"` // "console" / "page" / "both"
}

type Web struct {
	Listen      string `yaml:"Listen"`
	SettleDelay int    `yaml:"SettleDelay"` // 提交动作后等待的毫秒数，0 表示使用默认值 300
}

type Log struct {
	Dir   string `yaml:"Dir"`   // 为空时不写文件日志
	Level string `yaml:"Level"` // debug / info / warn / error
}

type Config struct {
	Mode       string     `yaml:"Mode"` // "console" / "web"
	Backend    Backend    `yaml:"Backend"`
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	Loading    Loading    `yaml:"Loading"`
	Page       Page       `yaml:"Page"`
	Notify     Notify     `yaml:"Notify"`
	Web        Web        `yaml:"Web"`
	Log        Log        `yaml:"Log"`
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 配置，补全默认值后校验
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default 返回默认配置
func Default() *Config {
	c := &Config{
		Page:   Page{Icons: true},
		Notify: Notify{Mode: NotifyBoth},
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeConsole
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Loading.Interval == 0 {
		c.Loading.Interval = 3
	}
	if c.Loading.DefaultText == "" {
		c.Loading.DefaultText = "WORKING ON IT... (~´･_･`)~"
	}
	if c.Loading.BusyLabel == "" {
		c.Loading.BusyLabel = "WAIT..."
	}
	if c.Loading.IdleLabel == "" {
		c.Loading.IdleLabel = "GO!"
	}
	if len(c.Loading.Facts) == 0 {
		c.Loading.Facts = append([]string(nil), DefaultFacts...)
	}
	if c.Notify.Mode == "" {
		c.Notify.Mode = NotifyBoth
	}
	if c.Web.Listen == "" {
		c.Web.Listen = "127.0.0.1:8080"
	}
	if c.Web.SettleDelay == 0 {
		c.Web.SettleDelay = 300
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.Mode != ModeConsole && c.Mode != ModeWeb {
		return fmt.Errorf("Mode 必须是 'console' 或 'web'")
	}

	// 验证 Backend
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("Backend.BaseURL 不是合法的地址: %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("Backend.Timeout 必须 >= 0")
	}

	// 验证代理
	if c.Sock5Proxy.Enable {
		if c.Sock5Proxy.Host == "" {
			return fmt.Errorf("Sock5Proxy.Host 不能为空")
		}
		if c.Sock5Proxy.Port <= 0 || c.Sock5Proxy.Port > 65535 {
			return fmt.Errorf("Sock5Proxy.Port 必须在 1-65535 之间")
		}
	}

	// 验证 Loading
	if c.Loading.Interval < 1 {
		return fmt.Errorf("Loading.Interval 必须 >= 1")
	}
	for i, fact := range c.Loading.Facts {
		if fact == "" {
			return fmt.Errorf("Loading.Facts[%d] 不能为空", i)
		}
	}

	if c.Notify.Mode != NotifyConsole && c.Notify.Mode != NotifyPage && c.Notify.Mode != NotifyBoth {
		return fmt.Errorf("Notify.Mode 必须是 'console', 'page' 或 'both'")
	}

	if c.Web.SettleDelay < 0 {
		return fmt.Errorf("Web.SettleDelay 必须 >= 0")
	}

	return nil
}

// RequestTimeout 单次后端请求的超时时间，0 表示不限制
func (b Backend) RequestTimeout() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

func (l Loading) Period() time.Duration {
	return time.Duration(l.Interval) * time.Second
}

func (w Web) Settle() time.Duration {
	return time.Duration(w.SettleDelay) * time.Millisecond
}
