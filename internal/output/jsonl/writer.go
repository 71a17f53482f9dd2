// Package jsonl 实现逐笔交易明细的异步 JSONL 输出。
// 回测 goroutine 只负责投递记录，JSON 编码与文件 I/O 在后台 goroutine 完成。
package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"strategy-lab/internal/core/model"
)

// ErrClosed 写入器已关闭
var ErrClosed = errors.New("writer 已关闭")

// TradeRecord trades.jsonl 中的一行
type TradeRecord struct {
	Selector string             `json:"selector"`
	Signal   string             `json:"signal"`
	Target   string             `json:"target"`
	Trade    model.TradeOutcome `json:"trade"`
}

type opType int

const (
	opWrite opType = iota
	opFlush
	opClose
)

type op struct {
	typ  opType
	val  any
	done chan error
}

// Writer 异步 JSONL 写入器
// 每次运行覆盖输出文件；可被多个 goroutine 并发调用
type Writer struct {
	path string
	ch   chan op

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool

	// sendMu 保证 Close 之后不再向 ch 投递
	sendMu sync.Mutex

	written atomic.Int64
	dropped atomic.Int64
	ioErr   atomic.Pointer[error]

	wg sync.WaitGroup
}

// NewWriter 创建 JSONL 写入器
// 参数 path: 输出文件路径，父目录不存在时自动创建
// 参数 bufferSize: 投递队列容量
func NewWriter(path string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{path: path, ch: make(chan op, bufferSize)}
	w.wg.Add(1)
	go w.loop(f)
	return w, nil
}

// Path 输出文件路径
func (w *Writer) Path() string { return w.path }

// Write 投递一条记录
func (w *Writer) Write(v any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed.Load() {
		return ErrClosed
	}
	w.ch <- op{typ: opWrite, val: v}
	return nil
}

// WriteTrades 投递一个组合的全部交易明细
func (w *Writer) WriteTrades(selector, signal, target string, trades []model.TradeOutcome) error {
	for i := range trades {
		rec := TradeRecord{Selector: selector, Signal: signal, Target: target, Trade: trades[i]}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush 等待已投递的记录写入文件
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed.Load() {
		return nil
	}
	done := make(chan error, 1)
	w.ch <- op{typ: opFlush, done: done}
	return <-done
}

// Close flush 并关闭文件
// 返回后台写入过程中遇到的第一个 I/O 错误
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		w.sendMu.Lock()
		w.closed.Store(true)
		done := make(chan error, 1)
		w.ch <- op{typ: opClose, done: done}
		w.closeErr = <-done
		close(w.ch)
		w.sendMu.Unlock()
	})
	w.wg.Wait()
	return w.closeErr
}

// Written 已成功写入的行数
func (w *Writer) Written() int64 { return w.written.Load() }

// Dropped 因编码失败被丢弃的记录数
func (w *Writer) Dropped() int64 { return w.dropped.Load() }

func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()

	bw := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(bw)
	fail := func(err error) {
		if err != nil {
			w.ioErr.CompareAndSwap(nil, &err)
		}
	}
	firstErr := func() error {
		if p := w.ioErr.Load(); p != nil {
			return *p
		}
		return nil
	}

	for req := range w.ch {
		switch req.typ {
		case opWrite:
			if firstErr() != nil {
				w.dropped.Add(1)
				continue
			}
			// Encoder 在每条记录后追加换行
			if err := enc.Encode(req.val); err != nil {
				var ue *json.UnsupportedValueError
				var te *json.UnsupportedTypeError
				if errors.As(err, &ue) || errors.As(err, &te) {
					w.dropped.Add(1)
					continue
				}
				fail(err)
				w.dropped.Add(1)
				continue
			}
			w.written.Add(1)
		case opFlush:
			fail(bw.Flush())
			req.done <- firstErr()
		case opClose:
			fail(bw.Flush())
			fail(f.Close())
			req.done <- firstErr()
			return
		}
	}
}
