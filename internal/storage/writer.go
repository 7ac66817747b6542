package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const writeTimeout = 5 * time.Second

// AuditWriter records verdicts off the caller's path. Writes are attempted
// once; a failure is logged and the record dropped. When maxRecords is
// positive the store is pruned to that many rows after each insert.
type AuditWriter struct {
	store      Store
	maxRecords int
	ch         chan *VerdictRecord
	wg         sync.WaitGroup
	done       chan struct{}
}

func NewAuditWriter(store Store, bufferSize, maxRecords int) *AuditWriter {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &AuditWriter{
		store:      store,
		maxRecords: maxRecords,
		ch:         make(chan *VerdictRecord, bufferSize),
		done:       make(chan struct{}),
	}
}

func (w *AuditWriter) Start() {
	w.wg.Add(1)
	go w.processLoop()
}

func (w *AuditWriter) Record(rec *VerdictRecord) {
	select {
	case w.ch <- rec:
	default:
		log.Warn().Str("analysis_id", rec.AnalysisID).Msg("audit buffer full, dropping verdict")
	}
}

// Flush stops the writer and waits up to timeout for buffered records. It
// reports whether everything was written before the deadline.
func (w *AuditWriter) Flush(timeout time.Duration) bool {
	close(w.done)

	doneCh := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		log.Debug().Msg("audit writer flushed")
		return true
	case <-time.After(timeout):
		log.Warn().Msg("audit writer flush timed out")
		return false
	}
}

func (w *AuditWriter) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case rec := <-w.ch:
			w.write(rec)
		case <-w.done:
			// Drain remaining entries
			for {
				select {
				case rec := <-w.ch:
					w.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (w *AuditWriter) write(rec *VerdictRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := w.store.RecordVerdict(ctx, rec); err != nil {
		log.Error().Err(err).Str("analysis_id", rec.AnalysisID).Msg("audit write failed")
		return
	}

	if w.maxRecords <= 0 {
		return
	}
	removed, err := w.store.Prune(ctx, w.maxRecords)
	if err != nil {
		log.Warn().Err(err).Int("max_records", w.maxRecords).Msg("audit retention failed")
		return
	}
	if removed > 0 {
		log.Debug().Int64("removed", removed).Int("max_records", w.maxRecords).Msg("pruned audit records")
	}
}
