package market

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	// 数据库驱动
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"strategy-lab/internal/core/model"
	"strategy-lab/internal/util/backoff"
)

// 支持的数据库驱动
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource 从数据表加载行情
// 表结构: symbol TEXT, date INTEGER (YYYYMMDD), open, high, low, close REAL, volume, amount INTEGER
type SQLSource struct {
	db          *sql.DB
	driver      string
	symbolsStmt *sql.Stmt
	barsStmt    *sql.Stmt
}

// OpenSQL 连接数据库并预编译查询
// 参数 driver: DriverSQLite 或 DriverPostgres
// 参数 dsn: 连接串，SQLite 为文件路径
// 参数 table: 日线表名，仅允许标识符字符
// 参数 retries: 连接检查最多尝试次数
func OpenSQL(ctx context.Context, driver, dsn, table string, retries int, logger *zap.Logger) (*SQLSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("无效的表名: %q", table)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	b := backoff.NewDefault()
	err = b.Retry(ctx, retries, func(ctx context.Context) error {
		perr := db.PingContext(ctx)
		if perr != nil {
			logger.Warn("数据库连接失败，准备重试",
				zap.String("driver", driver),
				zap.Int("attempt", b.Attempt()+1),
				zap.Error(perr))
		}
		return perr
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("连接数据库失败: %w", err), db.Close())
	}

	s := &SQLSource{db: db, driver: driver}
	if s.symbolsStmt, err = db.PrepareContext(ctx,
		fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", table)); err != nil {
		return nil, multierr.Append(fmt.Errorf("预编译查询失败: %w", err), s.Close())
	}
	q := fmt.Sprintf("SELECT date, open, high, low, close, volume, amount FROM %s WHERE symbol = %s",
		table, s.placeholder(1))
	if s.barsStmt, err = db.PrepareContext(ctx, q); err != nil {
		return nil, multierr.Append(fmt.Errorf("预编译查询失败: %w", err), s.Close())
	}

	logger.Info("数据库已连接", zap.String("driver", driver), zap.String("table", table))
	return s, nil
}

// placeholder 第 n 个参数占位符
func (s *SQLSource) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Symbols 列出表中全部标的
func (s *SQLSource) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.symbolsStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询标的列表失败: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("读取标的失败: %w", err)
		}
		out = append(out, strings.TrimSpace(sym))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历标的列表失败: %w", err)
	}
	return out, nil
}

// Bars 查询单个标的的日线
func (s *SQLSource) Bars(ctx context.Context, symbol string) (model.Series, error) {
	rows, err := s.barsStmt.QueryContext(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("查询 %s 日线失败: %w", symbol, err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var amount sql.NullInt64
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &amount); err != nil {
			return nil, fmt.Errorf("读取 %s 日线失败: %w", symbol, err)
		}
		b.Amount = amount.Int64
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 %s 日线失败: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return model.Normalize(bars), nil
}

// Close 关闭预编译语句与连接池
func (s *SQLSource) Close() error {
	var err error
	if s.symbolsStmt != nil {
		err = multierr.Append(err, s.symbolsStmt.Close())
	}
	if s.barsStmt != nil {
		err = multierr.Append(err, s.barsStmt.Close())
	}
	return multierr.Append(err, s.db.Close())
}
