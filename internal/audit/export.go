package audit

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// exportHeader matches spec.md §6 exactly; column order is part of the
// wire contract.
var exportHeader = []string{
	"Id", "EntityType", "EntityId", "ChangeType", "ChangedBy",
	"ChangeDate", "ChangeDetails", "Hash", "PrevHash",
}

// ExportFormat selects the Export serialization.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ExportCompression selects an optional stream compressor, offering both
// a plain and a compressed sink for large exports.
type ExportCompression string

const (
	CompressionNone ExportCompression = ""
	CompressionGzip ExportCompression = "gzip"
	CompressionZstd ExportCompression = "zstd"
)

// Export streams every record matching filter to w in the requested
// format and compression, newest first (the same ordering Query uses).
func (l *Log) Export(w io.Writer, format ExportFormat, compression ExportCompression, filter Filter) error {
	sink, closeSink, err := wrapCompression(w, compression)
	if err != nil {
		return err
	}
	defer closeSink()

	records := l.Query(filter, 0, 0)

	switch format {
	case ExportCSV:
		return exportCSV(sink, records)
	case ExportJSON:
		return exportJSON(sink, records)
	default:
		return fmt.Errorf("audit: unsupported export format %q", format)
	}
}

func wrapCompression(w io.Writer, compression ExportCompression) (io.Writer, func(), error) {
	switch compression {
	case CompressionNone:
		return w, func() {}, nil
	case CompressionGzip:
		gz := gzip.NewWriter(w)
		return gz, func() { _ = gz.Close() }, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("audit: open zstd writer: %w", err)
		}
		return zw, func() { _ = zw.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("audit: unsupported export compression %q", compression)
	}
}

func exportCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("audit: write csv header: %w", err)
	}
	for _, r := range records {
		details, err := json.Marshal(r.ChangeDetails)
		if err != nil {
			return fmt.Errorf("audit: marshal change details for record %d: %w", r.ID, err)
		}
		row := []string{
			fmt.Sprintf("%d", r.ID),
			string(r.EntityType),
			r.EntityID,
			string(r.ChangeType),
			r.ChangedBy,
			r.ChangeDate.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
			string(details),
			r.Hash,
			r.PrevHash,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("audit: write csv row for record %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportJSON(w io.Writer, records []*Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("audit: encode record %d: %w", r.ID, err)
		}
	}
	return nil
}
