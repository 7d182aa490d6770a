package database

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Charliesj0129/shijim/internal/events"

	"go.uber.org/zap"
)

// restoreBatchSize caps how many rows accumulate before a flush, bounding
// memory use when replaying a large backlog of fallback files.
const restoreBatchSize = 500

// RestoreTarget is anything that can absorb a batch of recovered
// ticks/books; columnar.Writer satisfies this via its WriteBatch method.
type RestoreTarget interface {
	WriteBatch(ticks []events.MDTickEvent, books []events.MDBookEvent) error
}

// Restorer walks the columnar fallback directory tree
// (<root>/ticks/*.jsonl, <root>/books/*.jsonl) and replays every line not
// already covered by a StagingStore watermark into a RestoreTarget. It
// exists because the fallback writer's job is durability during an outage,
// not delivery — something has to drain the backlog back into ClickHouse
// once the outage ends.
type Restorer struct {
	root    string
	staging *StagingStore
	target  RestoreTarget
	logger  *zap.Logger
}

func NewRestorer(root string, staging *StagingStore, target RestoreTarget, logger *zap.Logger) *Restorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Restorer{root: root, staging: staging, target: target, logger: logger}
}

// Run restores every pending line from every fallback file under both the
// ticks and books subdirectories, in filename (day) order.
func (r *Restorer) Run() error {
	for _, kind := range []string{"ticks", "books"} {
		files, err := r.listFiles(kind)
		if err != nil {
			return err
		}
		for _, path := range files {
			if err := r.restoreFile(kind, path); err != nil {
				return fmt.Errorf("restore %s: %w", path, err)
			}
		}
	}
	return nil
}

func (r *Restorer) listFiles(kind string) ([]string, error) {
	dir := filepath.Join(r.root, kind)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".jsonl" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// restoreFile replays path, a JSONLFallback-written file of one
// JSON-encoded event per line, skipping lines at or below the recorded
// watermark and committing a new watermark after every flushed batch.
func (r *Restorer) restoreFile(kind, path string) error {
	watermark, err := r.staging.Watermark(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var (
		ticks    []events.MDTickEvent
		books    []events.MDBookEvent
		lineNo   int64
		restored int
	)

	flush := func() error {
		if len(ticks) == 0 && len(books) == 0 {
			return nil
		}
		if err := r.target.WriteBatch(ticks, books); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
		if err := r.staging.CommitWatermark(path, lineNo); err != nil {
			return err
		}
		ticks = ticks[:0]
		books = books[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		if lineNo <= watermark {
			continue
		}

		line := scanner.Bytes()
		switch kind {
		case "ticks":
			var tick events.MDTickEvent
			if err := json.Unmarshal(line, &tick); err != nil {
				r.logger.Warn("skipping unparseable fallback line", zap.String("file", path), zap.Int64("line", lineNo), zap.Error(err))
				continue
			}
			ticks = append(ticks, tick)
		case "books":
			var book events.MDBookEvent
			if err := json.Unmarshal(line, &book); err != nil {
				r.logger.Warn("skipping unparseable fallback line", zap.String("file", path), zap.Int64("line", lineNo), zap.Error(err))
				continue
			}
			books = append(books, book)
		}
		restored++

		if len(ticks)+len(books) >= restoreBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return err
	}

	if restored > 0 {
		r.logger.Info("restored fallback file", zap.String("file", path), zap.Int("rows", restored))
	}
	return nil
}
