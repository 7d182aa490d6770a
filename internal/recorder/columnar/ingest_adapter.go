package columnar

import "github.com/Charliesj0129/shijim/internal/events"

// WriteBatch adapts Writer to the ingest.WriterBackend interface: it
// appends the batch then force-flushes, mirroring the reference
// ingestion worker's explicit `analytical_writer.flush(force=true)` nudge
// after every write_batch call.
func (w *Writer) WriteBatch(ticks []events.MDTickEvent, books []events.MDBookEvent) error {
	w.AppendTicks(ticks)
	w.AppendBooks(books)
	return w.Flush(true)
}
