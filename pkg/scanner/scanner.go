// Package scanner walks a directory holding a Chromium LevelDB database and
// produces the flat, on-disk-ordered sequence of Records it contains. It
// never merges, sorts, deduplicates, or verifies CRCs — see
// internal/leveldbfmt for the format decoders this package drives.
package scanner

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"chromedbscan.dev/chromedbscan/internal/leveldbfmt"
	"chromedbscan.dev/chromedbscan/internal/snappy"
	"chromedbscan.dev/chromedbscan/pkg/scanner/scanerr"
)

// Record is the unit of output. It is a direct alias of the internal
// decoder's Record type: the scanner adds no fields of its own, only
// ordering and file dispatch.
type Record = leveldbfmt.Record

// State re-exports the tombstone states a Record can carry.
type State = leveldbfmt.State

const (
	StateUnknown = leveldbfmt.StateUnknown
	StateLive    = leveldbfmt.StateLive
	StateDeleted = leveldbfmt.StateDeleted
)

// Origin re-exports which physical format produced a Record.
type Origin = leveldbfmt.Origin

const (
	OriginTable = leveldbfmt.OriginTable
	OriginLog   = leveldbfmt.OriginLog
)

var dataFileRE = regexp.MustCompile(`^([0-9]{6})\.(ldb|log|sst)$`)

type dataFile struct {
	path   string
	number uint64
	isLog  bool
}

// config holds the resolved set of Options.
type config struct {
	logger           *log.Logger
	skipCorruptFiles bool
}

// Option configures a Scan call.
type Option func(*config)

// WithLogger directs diagnostic output (corrupt-file warnings, skipped
// files) to l. The default logger discards all output.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSkipCorruptFiles controls whether the scanner continues to the next
// file after a table-reader error (bad magic, corrupt block, malformed
// Snappy) instead of stopping the scan. The default is false, matching
// spec §7: table-reader errors abort the current file and the scanner does
// not continue past it.
func WithSkipCorruptFiles(skip bool) Option {
	return func(c *config) { c.skipCorruptFiles = skip }
}

func newConfig(opts []Option) *config {
	c := &config{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scan opens dir and returns an Iterator over every record in every
// NNNNNN.{ldb,log,sst} file it contains, ordered by ascending file number
// and then by on-disk position within each file. It returns
// scanerr.ErrNotADirectory if dir does not exist or is not a directory.
func Scan(dir string, opts ...Option) (*Iterator, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, scanerr.ErrNotADirectory
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &scanerr.ScanError{File: dir, Err: err}
	}

	var files []dataFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := dataFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		number, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			continue
		}
		files = append(files, dataFile{
			path:   filepath.Join(dir, e.Name()),
			number: number,
			isLog:  m[2] == "log",
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].number < files[j].number })

	return &Iterator{
		cfg:   newConfig(opts),
		files: files,
	}, nil
}

// fileRecordReader is the shape both internal readers share.
type fileRecordReader interface {
	Next() bool
	Record() leveldbfmt.Record
	Err() error
}

// Iterator is a forward-only, non-restartable cursor over the records of a
// scanned directory. Call Next before each Record; stop iterating as soon
// as Next returns false and check Err to distinguish end-of-scan from
// failure. Close releases the currently open file; it is safe to call at
// any point, including before exhaustion.
type Iterator struct {
	cfg   *config
	files []dataFile
	idx   int

	f   *os.File
	cur fileRecordReader
	err error
}

// Next advances to the next record, opening and closing files as needed. It
// returns false at the end of the scan or on an unrecoverable error.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.cur != nil {
			if it.cur.Next() {
				return true
			}
			if err := it.cur.Err(); err != nil {
				path := it.files[it.idx-1].path
				it.closeCurrent()
				if it.cfg.skipCorruptFiles {
					it.cfg.logger.Printf("scanner: skipping %s after error: %v", path, err)
					continue
				}
				it.err = &scanerr.ScanError{File: path, Err: mapTableError(err)}
				return false
			}
			it.closeCurrent()
		}

		if it.idx >= len(it.files) {
			return false
		}
		df := it.files[it.idx]
		it.idx++

		if err := it.openFile(df); err != nil {
			if it.cfg.skipCorruptFiles {
				it.cfg.logger.Printf("scanner: skipping %s: %v", df.path, err)
				continue
			}
			it.err = err
			return false
		}
	}
}

func (it *Iterator) openFile(df dataFile) error {
	f, err := os.Open(df.path)
	if err != nil {
		return &scanerr.ScanError{File: df.path, Err: err}
	}
	it.f = f

	if df.isLog {
		it.cur = leveldbfmt.NewLogReader(f)
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		it.f = nil
		return &scanerr.ScanError{File: df.path, Err: err}
	}
	tr, err := leveldbfmt.OpenTable(f, info.Size())
	if err != nil {
		f.Close()
		it.f = nil
		return &scanerr.ScanError{File: df.path, Err: mapTableError(err)}
	}
	it.cur = tr
	return nil
}

func (it *Iterator) closeCurrent() {
	it.cur = nil
	if it.f != nil {
		it.f.Close()
		it.f = nil
	}
}

// mapTableError translates internal decoder errors onto the public
// scanerr sentinels named in spec §7.
func mapTableError(err error) error {
	switch {
	case errors.Is(err, leveldbfmt.ErrBadMagic):
		return scanerr.ErrBadMagic
	case errors.Is(err, snappy.ErrMalformed):
		return scanerr.ErrMalformedSnappy
	case errors.Is(err, snappy.ErrLengthMismatch):
		return scanerr.ErrLengthMismatch
	default:
		return err
	}
}

// Record returns the record at the current cursor position. Valid only
// after a call to Next that returned true.
func (it *Iterator) Record() Record {
	return it.cur.Record()
}

// Err returns the first unrecoverable error encountered, if any. A nil
// return after Next returns false means the scan reached the end cleanly.
func (it *Iterator) Err() error {
	return it.err
}

// Close releases the currently open file, if any. Safe to call multiple
// times and at any point in the iteration.
func (it *Iterator) Close() error {
	it.closeCurrent()
	return nil
}
