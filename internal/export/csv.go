// Package export persists research results as CSV and prints run summaries.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/model"
)

// WriteError reports that results could not be persisted. The records passed
// to the writer are untouched and may be written elsewhere.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return "export: write " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteCSV writes recs to path with a header row and the fixed column order.
// The file is written to a temporary sibling and renamed into place, so a
// failed write never leaves a partial file at path.
func WriteCSV(path string, recs []model.Institution) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".institutions-*.csv.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if err := encode(tmp, recs); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return &WriteError{Path: path, Err: err}
	}
	// CreateTemp uses 0600; the results file is meant to be shared.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return &WriteError{Path: path, Err: err}
	}

	zap.L().Info("export: wrote csv", zap.String("path", path), zap.Int("records", len(recs)))
	return nil
}

// WriteFallback dumps recs to a new file in the OS temp dir after a failed
// write and returns its path.
func WriteFallback(recs []model.Institution) (string, error) {
	f, err := os.CreateTemp("", "institutions-fallback-*.csv")
	if err != nil {
		return "", eris.Wrap(err, "export: create fallback file")
	}
	if err := encode(f, recs); err != nil {
		f.Close() //nolint:errcheck
		return "", eris.Wrap(err, "export: write fallback file")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "export: close fallback file")
	}
	return f.Name(), nil
}

func encode(w io.Writer, recs []model.Institution) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(model.Institution{}); err != nil {
		return eris.Wrap(err, "export: encode header")
	}
	for i := range recs {
		if err := enc.Encode(recs[i]); err != nil {
			return eris.Wrapf(err, "export: encode record %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads records from a CSV previously written by WriteCSV. Rows that
// cannot be decoded or fail schema validation are logged and skipped.
func ReadCSV(path string) ([]model.Institution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	dec, err := csvutil.NewDecoder(r)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "export: read header of %s", path)
	}

	header := dec.Header()
	for _, col := range []string{"name", "type", "website_url", "careers_url"} {
		if !slices.Contains(header, col) {
			return nil, eris.Errorf("export: %s: missing column %q", path, col)
		}
	}

	var recs []model.Institution
	for row := 2; ; row++ {
		var rec model.Institution
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			zap.L().Warn("export: skipping undecodable row", zap.String("path", path), zap.Int("row", row), zap.Error(err))
			continue
		}
		if err := rec.Validate(); err != nil {
			zap.L().Warn("export: skipping invalid row", zap.String("path", path), zap.Int("row", row), zap.Error(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
