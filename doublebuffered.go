package turbodbc

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const stopFetchingResults = 2

type batchFetchResult struct {
	rows int
	err  error
}

// DoubleBufferedResultSet overlaps native CLI fetches with the consumer
// reading the previous batch: two BoundResultSets, each sized to half the
// configured read buffer, alternate under a background reader goroutine.
// Grounded in turbodbc::result_sets::double_buffered_result_set.
type DoubleBufferedResultSet struct {
	stmt               *Statement
	cfg                *Config
	batches            [2]*BoundResultSet
	activeReadingBatch int

	requests  chan int
	responses chan batchFetchResult
	group     *errgroup.Group

	closeOnce sync.Once
}

// NewDoubleBufferedResultSet builds both half-sized batches, binds them,
// and starts the reader goroutine with an initial prefetch of batch 0
// already in flight.
func NewDoubleBufferedResultSet(stmt *Statement, cfg *Config) (*DoubleBufferedResultSet, error) {
	halved := *cfg
	halved.ReadBufferSize = cfg.ReadBufferSize.halved()

	batch0, err := NewBoundResultSet(stmt, &halved)
	if err != nil {
		return nil, err
	}
	batch1, err := NewBoundResultSet(stmt, &halved)
	if err != nil {
		return nil, err
	}

	d := &DoubleBufferedResultSet{
		stmt:      stmt,
		cfg:       cfg,
		batches:   [2]*BoundResultSet{batch0, batch1},
		requests:  make(chan int, 1),
		responses: make(chan batchFetchResult, 1),
	}
	d.group = &errgroup.Group{}
	d.group.Go(d.readerLoop)

	d.requests <- 0
	d.activeReadingBatch = 1
	return d, nil
}

// readerLoop is the sole goroutine touching the native CLI on behalf of
// this result set: every SQLFetch call for either batch happens here, so
// the statement handle is never driven concurrently from two goroutines.
func (d *DoubleBufferedResultSet) readerLoop() error {
	for {
		batchID := <-d.requests
		if batchID == stopFetchingResults {
			return nil
		}

		start := time.Now()
		n, err := d.fetchBatch(batchID)
		if d.cfg.Metrics != nil {
			d.cfg.Metrics.observeFetch(time.Since(start))
		}
		d.responses <- batchFetchResult{rows: n, err: err}
	}
}

func (d *DoubleBufferedResultSet) fetchBatch(batchID int) (int, error) {
	batch := d.batches[batchID]
	if err := batch.rebind(); err != nil {
		return 0, err
	}
	return batch.FetchNextBatch()
}

// FetchNextBatch requests the next prefetch, toggles which batch is
// considered "active" (the one whose fetch just completed), and blocks for
// its result.
func (d *DoubleBufferedResultSet) FetchNextBatch() (int, error) {
	d.requests <- d.activeReadingBatch
	if d.activeReadingBatch == 0 {
		d.activeReadingBatch = 1
	} else {
		d.activeReadingBatch = 0
	}
	res := <-d.responses
	return res.rows, res.err
}

// ColumnInfos returns the currently active batch's column descriptions.
func (d *DoubleBufferedResultSet) ColumnInfos() []ColumnInfo {
	return d.batches[d.activeReadingBatch].ColumnInfos()
}

// Columns returns the currently active batch's bound columns.
func (d *DoubleBufferedResultSet) Columns() []*ResultColumn {
	return d.batches[d.activeReadingBatch].Columns()
}

// Close stops the reader goroutine and waits for it to exit. Safe to call
// more than once.
func (d *DoubleBufferedResultSet) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.requests <- stopFetchingResults
		err = d.group.Wait()
	})
	return err
}
