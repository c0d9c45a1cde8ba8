package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Dataset is a flat tabular view of a timetable, shared by all exporters.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSVExporter streams a dataset as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the header row followed by every data row.
func (e *CSVExporter) Export(w io.Writer, dataset *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(dataset.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range dataset.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
