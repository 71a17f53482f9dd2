// Package config 负责加载和验证 YAML 配置文件。
// 提供回测所需的所有配置项，包括数据源、选股策略、入场信号、退出目标与输出设置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 数据源类型
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceMock     = "mock"
)

// 回测窗口模式
const (
	// WindowForward 偏移量取 1..=back_days
	WindowForward = "forward"
	// WindowAfterHorizon 偏移量取 horizon+1..=horizon+back_days
	WindowAfterHorizon = "after_horizon"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Data 行情数据源配置
	Data DataConfig `yaml:"data"`
	// Backtest 回测参数
	Backtest BacktestConfig `yaml:"backtest"`
	// Selectors 选股策略列表
	Selectors []SelectorConfig `yaml:"selectors"`
	// Signals 入场信号列表
	Signals []SignalConfig `yaml:"signals"`
	// Targets 退出目标列表
	Targets []TargetConfig `yaml:"targets"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// DataConfig 行情数据源配置
type DataConfig struct {
	// Source 数据源类型: csv, sqlite, postgres, mock
	Source string `yaml:"source"`
	// Dir CSV 目录（每个标的一个 <symbol>.csv 文件）
	Dir string `yaml:"dir"`
	// DSN 数据库连接串（sqlite 为文件路径）
	DSN string `yaml:"dsn"`
	// Table 日线表名
	Table string `yaml:"table"`
	// MinBars 最少 K 线数量，不足的标的不参与回测
	MinBars int `yaml:"min_bars"`
	// ExcludePrefixes 排除的代码前缀（如科创板 688、创业板 300）
	ExcludePrefixes []string `yaml:"exclude_prefixes"`
	// Workers 并行加载的 goroutine 数量
	Workers int `yaml:"workers"`
	// ConnectRetries 数据库连接重试次数
	ConnectRetries int `yaml:"connect_retries"`
	// Mock 模拟数据配置（source=mock 时使用）
	Mock MockConfig `yaml:"mock"`
}

// MockConfig 模拟数据配置
type MockConfig struct {
	// Symbols 标的数量
	Symbols int `yaml:"symbols"`
	// Days 每个标的的交易日数量
	Days int `yaml:"days"`
	// Seed 随机种子，相同种子生成相同数据
	Seed int64 `yaml:"seed"`
}

// BacktestConfig 回测参数
type BacktestConfig struct {
	// BackDays 回测的历史窗口数量
	BackDays int `yaml:"back_days"`
	// Window 偏移量模式: forward, after_horizon
	Window string `yaml:"window"`
	// Workers 评分卡并行度
	Workers int `yaml:"workers"`
	// CollectTrades 是否保留逐笔交易明细
	CollectTrades bool `yaml:"collect_trades"`
}

// Params 策略参数表
type Params map[string]float64

// Float 读取浮点参数，缺省时返回 def
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int 读取整数参数，缺省时返回 def
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// SelectorConfig 选股策略配置
type SelectorConfig struct {
	// Type 策略类型: atr, volume_decline, breakthrough, rsi, macd
	Type string `yaml:"type"`
	// TopN 每个交易日最多选出的标的数量
	TopN int `yaml:"top_n"`
	// Params 策略参数
	Params Params `yaml:"params"`
}

// SignalConfig 入场信号配置
type SignalConfig struct {
	// Type 信号类型: close, open, limit, bottom_reverse, volume_surge
	Type string `yaml:"type"`
	// Params 信号参数
	Params Params `yaml:"params"`
}

// TargetConfig 退出目标配置
type TargetConfig struct {
	// Name 目标名称，如 return_3d，为空时自动生成
	Name string `yaml:"name"`
	// Type 目标类型: return, guard
	Type string `yaml:"type"`
	// TargetReturn 目标收益率（guard 类型忽略）
	TargetReturn float64 `yaml:"target_return"`
	// StopLoss 止损比例（0-1）
	StopLoss float64 `yaml:"stop_loss"`
	// InDays 最大持有天数
	InDays int `yaml:"in_days"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// ExportFile 评分卡 JSON 导出文件名，为空则不导出
	ExportFile string `yaml:"export_file"`
	// TradesEnabled 是否输出逐笔交易 trades.jsonl
	TradesEnabled bool `yaml:"trades_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析 YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// Default 返回未提供配置文件时使用的默认配置（模拟数据源）
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "strategy-lab"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// 数据源默认值
	if c.Data.Source == "" {
		c.Data.Source = SourceMock
	}
	if c.Data.Table == "" {
		c.Data.Table = "daily_bars"
	}
	if c.Data.MinBars == 0 {
		c.Data.MinBars = 120
	}
	if c.Data.ExcludePrefixes == nil {
		c.Data.ExcludePrefixes = []string{"688", "300", "301", "302"}
	}
	if c.Data.Workers == 0 {
		c.Data.Workers = 8
	}
	if c.Data.ConnectRetries == 0 {
		c.Data.ConnectRetries = 3
	}
	if c.Data.Mock.Symbols == 0 {
		c.Data.Mock.Symbols = 50
	}
	if c.Data.Mock.Days == 0 {
		c.Data.Mock.Days = 250
	}
	if c.Data.Mock.Seed == 0 {
		c.Data.Mock.Seed = 42
	}

	// 回测默认值
	if c.Backtest.BackDays == 0 {
		c.Backtest.BackDays = 12
	}
	if c.Backtest.Window == "" {
		c.Backtest.Window = WindowForward
	}
	if c.Backtest.Workers == 0 {
		c.Backtest.Workers = 8
	}

	// 策略组合默认值
	if len(c.Selectors) == 0 {
		c.Selectors = []SelectorConfig{
			{Type: "atr", TopN: 10},
			{Type: "volume_decline", TopN: 10},
			{Type: "breakthrough", TopN: 10},
		}
	}
	for i := range c.Selectors {
		if c.Selectors[i].TopN == 0 {
			c.Selectors[i].TopN = 10
		}
	}
	if len(c.Signals) == 0 {
		c.Signals = []SignalConfig{
			{Type: "close"},
			{Type: "open"},
			{Type: "bottom_reverse"},
		}
	}
	if len(c.Targets) == 0 {
		c.Targets = []TargetConfig{
			{Name: "return_1d", Type: "return", TargetReturn: 0.02, StopLoss: 0.01, InDays: 1},
			{Name: "return_3d", Type: "return", TargetReturn: 0.06, StopLoss: 0.01, InDays: 3},
			{Name: "return_5d", Type: "return", TargetReturn: 0.01, StopLoss: 0.01, InDays: 5},
			{Name: "guard_3d", Type: "guard", StopLoss: 0.01, InDays: 3},
		}
	}
	for i := range c.Targets {
		if c.Targets[i].Type == "" {
			c.Targets[i].Type = "return"
		}
		if c.Targets[i].Name == "" {
			c.Targets[i].Name = fmt.Sprintf("%s_%dd", c.Targets[i].Type, c.Targets[i].InDays)
		}
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证数据源
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Dir == "" {
			errs = append(errs, "data.dir: csv 数据源必须配置目录")
		}
	case SourceSQLite, SourcePostgres:
		if c.Data.DSN == "" {
			errs = append(errs, fmt.Sprintf("data.dsn: %s 数据源必须配置连接串", c.Data.Source))
		}
	case SourceMock:
	default:
		errs = append(errs, fmt.Sprintf("data.source: 无效的数据源 '%s'，有效值: csv, sqlite, postgres, mock", c.Data.Source))
	}
	if c.Data.MinBars < 0 {
		errs = append(errs, "data.min_bars: 最少 K 线数量不能为负数")
	}
	if c.Data.Workers <= 0 {
		errs = append(errs, "data.workers: 并行度必须为正数")
	}

	// 验证回测参数
	if c.Backtest.BackDays <= 0 {
		errs = append(errs, "backtest.back_days: 回测天数必须为正数")
	}
	if c.Backtest.Window != WindowForward && c.Backtest.Window != WindowAfterHorizon {
		errs = append(errs, fmt.Sprintf("backtest.window: 无效的窗口模式 '%s'，有效值: forward, after_horizon", c.Backtest.Window))
	}
	if c.Backtest.Workers <= 0 {
		errs = append(errs, "backtest.workers: 并行度必须为正数")
	}

	// 验证策略组合
	for i, s := range c.Selectors {
		if s.Type == "" {
			errs = append(errs, fmt.Sprintf("selectors[%d].type: 策略类型不能为空", i))
		}
		if s.TopN < 0 {
			errs = append(errs, fmt.Sprintf("selectors[%d].top_n: 选股数量不能为负数", i))
		}
	}
	for i, s := range c.Signals {
		if s.Type == "" {
			errs = append(errs, fmt.Sprintf("signals[%d].type: 信号类型不能为空", i))
		}
	}
	for i, t := range c.Targets {
		if err := validateTarget(t); err != nil {
			errs = append(errs, fmt.Sprintf("targets[%d].%s", i, err.Error()))
		}
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateTarget 验证退出目标参数
// 返回: 若参数无效则返回错误（不含 targets[i] 前缀）
func validateTarget(t TargetConfig) error {
	if t.InDays < 1 {
		return fmt.Errorf("in_days: 持有天数必须 >= 1，当前值: %d", t.InDays)
	}
	if t.StopLoss < 0 || t.StopLoss >= 1 {
		return fmt.Errorf("stop_loss: 止损比例必须在 [0, 1) 之间，当前值: %f", t.StopLoss)
	}
	switch t.Type {
	case "return":
		if t.TargetReturn <= 0 {
			return fmt.Errorf("target_return: 目标收益率必须为正数，当前值: %f", t.TargetReturn)
		}
	case "guard":
	default:
		return fmt.Errorf("type: 无效的目标类型 '%s'，有效值: return, guard", t.Type)
	}
	return nil
}
