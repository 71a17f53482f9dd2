// Package main 是策略评分卡的入口点。
// 加载日线行情，对 选股策略 × 入场信号 × 退出目标 的全部组合做滚动回测，
// 打印评分矩阵与最佳组合，并导出 JSON 结果与逐笔交易明细。
//
// 重要：本程序仅用于历史回测研究，不连接任何交易通道。
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/config"
	"strategy-lab/internal/core/entry"
	"strategy-lab/internal/core/exit"
	"strategy-lab/internal/core/selector"
	"strategy-lab/internal/market"
	"strategy-lab/internal/output/jsonl"
	"strategy-lab/internal/report"
	"strategy-lab/internal/scorecard"
)

const tradesFile = "trades.jsonl"

func main() {
	app := cli.NewApp()
	app.Name = "scorecard"
	app.Usage = "对选股策略、入场信号与退出目标的全部组合做滚动回测评分"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "配置文件路径，文件不存在时使用内置默认配置"},
		&cli.IntFlag{Name: "days", Usage: "回测的历史窗口数量，覆盖 backtest.back_days"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "输出目录，覆盖 output.dir"},
		&cli.StringFlag{Name: "log-level", Usage: "日志级别: debug, info, warn, error"},
		&cli.BoolFlag{Name: "trades", Usage: "输出逐笔交易明细 trades.jsonl"},
	}
	app.Action = runSweep
	app.Commands = []*cli.Command{
		{
			Name:  "single",
			Usage: "只回测一个组合并给出今日推荐",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "strategy", Required: true, Usage: "选股策略类型或名称，如 atr"},
				&cli.StringFlag{Name: "signal", Required: true, Usage: "入场信号类型或名称，如 close"},
				&cli.StringFlag{Name: "target", Required: true, Usage: "退出目标名称，如 return_3d"},
			},
			Action: runSingle,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "运行失败: %v\n", err)
		os.Exit(1)
	}
}

// session 一次运行共享的配置、日志与行情
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   *market.Repository
	engine *backtest.Engine
}

// openSession 加载配置并构建截面数据
func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.App.LogLevel)

	src, err := market.Open(c.Context, cfg.Data, logger)
	if err != nil {
		return nil, fmt.Errorf("打开数据源失败: %w", err)
	}
	repo := market.NewRepository(src, logger)

	start := time.Now()
	panel, err := repo.LoadPanel(c.Context, market.LoadOptions{
		Workers:         cfg.Data.Workers,
		MinBars:         cfg.Data.MinBars,
		ExcludePrefixes: cfg.Data.ExcludePrefixes,
	})
	if err != nil {
		return nil, multierr.Append(err, repo.Close())
	}
	if panel.Len() == 0 {
		return nil, multierr.Append(errors.New("没有可用的行情数据"), repo.Close())
	}
	logger.Info("行情加载完成",
		zap.String("source", cfg.Data.Source),
		zap.Int("symbols", panel.Len()),
		zap.Duration("elapsed", time.Since(start)))

	engine := backtest.NewEngine(panel,
		backtest.WithWindow(cfg.Backtest.Window),
		backtest.WithTrades(cfg.Backtest.CollectTrades || cfg.Output.TradesEnabled),
		backtest.WithLogger(logger),
	)
	return &session{cfg: cfg, logger: logger, repo: repo, engine: engine}, nil
}

func (s *session) close() error {
	err := s.repo.Close()
	_ = s.logger.Sync()
	return err
}

// loadConfig 读取配置文件并应用命令行覆盖项
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	var cfg *config.Config
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !c.IsSet("config") {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("days") {
		cfg.Backtest.BackDays = c.Int("days")
	}
	if c.IsSet("output") {
		cfg.Output.Dir = c.String("output")
	}
	if c.IsSet("log-level") {
		cfg.App.LogLevel = c.String("log-level")
	}
	if c.Bool("trades") {
		cfg.Output.TradesEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// signalContext 捕获 SIGINT/SIGTERM 后取消 ctx
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "收到退出信号，停止加载")
			cancel()
		case <-ctx.Done():
		}
		ossignal.Stop(sigCh)
	}()
	return ctx, cancel
}

// components 按配置创建选股策略、入场信号与退出目标
func components(cfg *config.Config) ([]selector.Selector, []entry.Rule, []exit.Policy, error) {
	sels, err := selector.NewAll(cfg.Selectors)
	if err != nil {
		return nil, nil, nil, err
	}
	rules, err := entry.NewAll(cfg.Signals)
	if err != nil {
		return nil, nil, nil, err
	}
	pols, err := exit.NewAll(cfg.Targets)
	if err != nil {
		return nil, nil, nil, err
	}
	return sels, rules, pols, nil
}

func runSweep(c *cli.Context) (err error) {
	ctx, cancel := signalContext(c.Context)
	defer cancel()
	c.Context = ctx

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.close()) }()

	sels, rules, pols, err := components(s.cfg)
	if err != nil {
		return err
	}

	sc := scorecard.New(s.engine, s.cfg.Backtest.BackDays, pols, sels, rules,
		scorecard.WithWorkers(s.cfg.Backtest.Workers),
		scorecard.WithLogger(s.logger),
	)
	s.logger.Info("开始评分",
		zap.Int("combinations", sc.Size()),
		zap.Int("back_days", s.cfg.Backtest.BackDays),
		zap.String("window", s.cfg.Backtest.Window))

	m := sc.Run()
	names := report.NamesOf(sc)
	report.PrintMatrix(os.Stdout, names, m)
	best := scorecard.FindBest(m)
	report.PrintBest(os.Stdout, names, best)

	details := sc.Details(m)
	for _, b := range scorecard.Top(m, 2) {
		for _, d := range details {
			if d.Best == b {
				report.PrintDetail(os.Stdout, names, d)
			}
		}
	}

	if s.cfg.Output.ExportFile != "" {
		runID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("生成运行 ID 失败: %w", err)
		}
		path := filepath.Join(s.cfg.Output.Dir, s.cfg.Output.ExportFile)
		if err := report.WriteFile(path, report.Build(names, m, details, runID, time.Now())); err != nil {
			return err
		}
		s.logger.Info("结果已导出", zap.String("path", path), zap.String("run_id", runID.String()))
	}

	if s.cfg.Output.TradesEnabled {
		return writeTrades(s, names, details)
	}
	return nil
}

// writeTrades 输出各组合的逐笔交易
func writeTrades(s *session, names report.Names, details []scorecard.Detail) (err error) {
	path := filepath.Join(s.cfg.Output.Dir, tradesFile)
	w, err := jsonl.NewWriter(path, s.cfg.Output.BufferSize)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()

	for _, d := range details {
		if err := w.WriteTrades(names.Selectors[d.Selector], names.Signals[d.Signal], names.Targets[d.Target], d.Result.Trades); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("写入交易明细失败: %w", err)
	}
	s.logger.Info("交易明细已输出",
		zap.String("path", path),
		zap.Int64("records", w.Written()),
		zap.Int64("dropped", w.Dropped()))
	return nil
}

func runSingle(c *cli.Context) (err error) {
	ctx, cancel := signalContext(c.Context)
	defer cancel()
	c.Context = ctx

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.close()) }()

	sels, rules, pols, err := components(s.cfg)
	if err != nil {
		return err
	}

	si, ok := pick(c.String("strategy"), len(sels), func(i int) (string, string) { return s.cfg.Selectors[i].Type, sels[i].Name() })
	if !ok {
		return fmt.Errorf("未找到选股策略: %s，可用类型: %v", c.String("strategy"), selector.Types())
	}
	gi, ok := pick(c.String("signal"), len(rules), func(i int) (string, string) { return s.cfg.Signals[i].Type, rules[i].Name() })
	if !ok {
		return fmt.Errorf("未找到入场信号: %s，可用类型: %v", c.String("signal"), entry.Types())
	}
	ti, ok := pick(c.String("target"), len(pols), func(i int) (string, string) { return s.cfg.Targets[i].Name, pols[i].Name() })
	if !ok {
		return fmt.Errorf("未找到退出目标: %s", c.String("target"))
	}

	sel, rule, pol := sels[si], rules[gi], pols[ti]
	days := s.cfg.Backtest.BackDays
	score := s.engine.RunBacktest(sel, rule, pol, days)
	detail := scorecard.Detail{
		Best:            scorecard.Best{Score: score},
		Result:          s.engine.RunDetailed(sel, rule, pol, days),
		Recommendations: s.engine.Recommend(sel, rule, pol),
	}
	names := report.Names{
		Targets:   []string{pol.Name()},
		Selectors: []string{sel.Name()},
		Signals:   []string{rule.Name()},
	}
	report.PrintDetail(os.Stdout, names, detail)

	if s.cfg.Output.TradesEnabled {
		return writeTrades(s, names, []scorecard.Detail{detail})
	}
	return nil
}

// pick 按配置标识或显示名称查找下标
func pick(want string, n int, keys func(i int) (string, string)) (int, bool) {
	for i := 0; i < n; i++ {
		id, name := keys(i)
		if want == id || want == name {
			return i, true
		}
	}
	return 0, false
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
