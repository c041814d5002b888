package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"taxi-analytics/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMalformed         = errors.New("malformed dataset")
)

// DetectFormat returns "csv" or "json" from the file extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv", nil
	case ".json":
		return "json", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// LoadFile reads the dataset at path. An empty format is inferred from the
// extension. A missing or malformed file is an error; the caller must not
// serve traffic without a table.
func LoadFile(path, format string) (*Table, error) {
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var trips []models.Trip
	switch format {
	case "csv":
		trips, err = ReadCSV(f)
	case "json":
		trips, err = ReadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return NewTable(trips), nil
}

// ReadCSV parses a header-first CSV stream. Unknown columns are ignored; the
// city column is required.
func ReadCSV(r io.Reader) ([]models.Trip, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}

	columns := make([]string, len(header))
	hasCity := false
	for i, h := range header {
		columns[i] = canonicalColumn(strings.TrimPrefix(h, "\ufeff"))
		if columns[i] == "city" {
			hasCity = true
		}
	}
	if !hasCity {
		return nil, fmt.Errorf("%w: no city column in header %v", ErrMalformed, header)
	}

	var trips []models.Trip
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if col != "" {
				fields[col] = rec[i]
			}
		}
		trips = append(trips, tripFromFields(fields))
	}
	return trips, nil
}

// ReadJSON parses either an array of record objects (pandas
// orient="records") or an object of columns keyed by row index (pandas
// orient="columns", the to_json default). Integer timestamps are read as
// epoch milliseconds.
func ReadJSON(r io.Reader) ([]models.Trip, error) {
	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var records []map[string]any
	switch v := doc.(type) {
	case []any:
		records = make([]map[string]any, 0, len(v))
		for i, item := range v {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: record %d is not an object", ErrMalformed, i)
			}
			records = append(records, rec)
		}
	case map[string]any:
		var err error
		if records, err = pivotColumns(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: expected an array of records or an object of columns", ErrMalformed)
	}

	trips := make([]models.Trip, 0, len(records))
	for _, rec := range records {
		fields := make(map[string]string, len(rec))
		for k, v := range rec {
			col := canonicalColumn(k)
			if col == "" {
				continue
			}
			if col == "pickup_time" || col == "dropoff_time" {
				fields[col] = jsonTimeText(v)
			} else {
				fields[col] = jsonText(v)
			}
		}
		trips = append(trips, tripFromFields(fields))
	}
	return trips, nil
}

// pivotColumns turns {"col": {"0": v, "1": v}} into one record per index
// label. Rows follow the index order: numeric when every label is an
// integer, lexical otherwise.
func pivotColumns(columns map[string]any) ([]map[string]any, error) {
	byIndex := make(map[string]map[string]any)
	for name, raw := range columns {
		cells, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: column %q is not an object keyed by row index", ErrMalformed, name)
		}
		for idx, v := range cells {
			rec, ok := byIndex[idx]
			if !ok {
				rec = make(map[string]any, len(columns))
				byIndex[idx] = rec
			}
			rec[name] = v
		}
	}

	labels := make([]string, 0, len(byIndex))
	numeric := true
	for idx := range byIndex {
		labels = append(labels, idx)
		if _, err := strconv.Atoi(idx); err != nil {
			numeric = false
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if numeric {
			a, _ := strconv.Atoi(labels[i])
			b, _ := strconv.Atoi(labels[j])
			return a < b
		}
		return labels[i] < labels[j]
	})

	records := make([]map[string]any, 0, len(labels))
	for _, idx := range labels {
		records = append(records, byIndex[idx])
	}
	return records, nil
}

func jsonTimeText(v any) string {
	if n, ok := v.(json.Number); ok {
		if ms, err := n.Int64(); err == nil {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
		}
	}
	return jsonText(v)
}

func jsonText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
