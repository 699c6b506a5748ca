package turbodbc

import (
	"time"

	"go.uber.org/zap"
)

// BufferSize is the tagged union the original turbodbc configuration calls
// buffer_size: either a fixed row count or a megabyte budget translated into
// a row count once the per-row byte width is known.
type BufferSize interface {
	rowsToBuffer(totalElementSize int) int
	halved() BufferSize
}

// RowsRequest requests exactly k rows per batch (at least 1).
type RowsRequest int

func (r RowsRequest) rowsToBuffer(int) int {
	if int(r) < 1 {
		return 1
	}
	return int(r)
}

func (r RowsRequest) halved() BufferSize {
	// ceiling division, so two halves never sum to less than the original.
	return RowsRequest((int(r) + 1) / 2)
}

// MegabytesRequest requests as many rows as fit in m megabytes given the
// result set's total per-row byte width.
type MegabytesRequest int

func (m MegabytesRequest) rowsToBuffer(totalElementSize int) int {
	if totalElementSize <= 0 {
		return 1
	}
	budget := int(m) * (1 << 20)
	rows := budget / totalElementSize
	if rows < 1 {
		return 1
	}
	return rows
}

func (m MegabytesRequest) halved() BufferSize {
	if m < 2 {
		return MegabytesRequest(1)
	}
	return MegabytesRequest(int(m) / 2)
}

// Config mirrors turbodbc's configuration struct: the tunables that govern
// buffer sizing, type mapping, and transaction behaviour. Defaults below
// match the original source exactly (see DESIGN.md).
type Config struct {
	ReadBufferSize                BufferSize
	ParameterSetsToBuffer         int
	VarcharMaxCharacterLimit      int
	UseAsyncIO                    bool
	PreferUnicode                 bool
	Autocommit                    bool
	LargeDecimalsAs64BitTypes     bool
	LimitVarcharResultsToMax      bool
	ForceExtraCapacityForUnicode  bool
	FetchWCharAsChar              bool
	QueryTimeout                  time.Duration
	LastInsertIdBehavior          LastInsertIdBehavior
	Logger                        *zap.Logger
	Metrics                       *Collector
}

// NewConfig returns a Config with turbodbc's documented defaults, then
// applies opts in order.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{
		ReadBufferSize:           MegabytesRequest(20),
		ParameterSetsToBuffer:    1000,
		VarcharMaxCharacterLimit: 65535,
		UseAsyncIO:               false,
		PreferUnicode:            false,
		Autocommit:               false,
		LastInsertIdBehavior:     LastInsertIdDisabled,
		Logger:                   zap.NewNop(),
		Metrics:                  NewCollector(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ConfigOption configures a Config, the same functional-options idiom the
// teacher repo uses for its Connector.
type ConfigOption func(*Config)

func WithReadBufferSize(b BufferSize) ConfigOption {
	return func(c *Config) { c.ReadBufferSize = b }
}

func WithParameterSetsToBuffer(n int) ConfigOption {
	return func(c *Config) { c.ParameterSetsToBuffer = n }
}

func WithPreferUnicode(v bool) ConfigOption {
	return func(c *Config) { c.PreferUnicode = v }
}

func WithAutocommit(v bool) ConfigOption {
	return func(c *Config) { c.Autocommit = v }
}

func WithLargeDecimalsAs64BitTypes(v bool) ConfigOption {
	return func(c *Config) { c.LargeDecimalsAs64BitTypes = v }
}

func WithLimitVarcharResultsToMax(v bool) ConfigOption {
	return func(c *Config) { c.LimitVarcharResultsToMax = v }
}

func WithForceExtraCapacityForUnicode(v bool) ConfigOption {
	return func(c *Config) { c.ForceExtraCapacityForUnicode = v }
}

func WithFetchWCharAsChar(v bool) ConfigOption {
	return func(c *Config) { c.FetchWCharAsChar = v }
}

func WithVarcharMaxCharacterLimit(n int) ConfigOption {
	return func(c *Config) { c.VarcharMaxCharacterLimit = n }
}

func WithQueryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.QueryTimeout = d }
}

func WithLastInsertIdBehavior(b LastInsertIdBehavior) ConfigOption {
	return func(c *Config) { c.LastInsertIdBehavior = b }
}

func WithLogger(l *zap.Logger) ConfigOption {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

func WithMetrics(m *Collector) ConfigOption {
	return func(c *Config) {
		if m != nil {
			c.Metrics = m
		}
	}
}
