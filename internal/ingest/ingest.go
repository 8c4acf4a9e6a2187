package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// batchSize bounds how many rows go into one multi-row insert.
const batchSize = 500

// ErrBadRow marks a CSV row that cannot be parsed.
var ErrBadRow = errors.New("bad csv row")

// ReadPanel parses metric rows from a CSV stream with the fixed header
// unit_id,year,variable,value. The header row is optional.
func ReadPanel(r io.Reader) ([]model.MetricObservation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var rows []model.MetricObservation
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line+1, err)
		}
		line++
		if line == 1 && rec[0] == "unit_id" {
			continue
		}
		year, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year %q", ErrBadRow, line, rec[1])
		}
		value, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: value %q", ErrBadRow, line, rec[3])
		}
		rows = append(rows, model.MetricObservation{
			UnitID:   rec[0],
			Year:     year,
			Variable: rec[2],
			Value:    value,
		})
	}
	return rows, nil
}

// ReadLineage parses lineage rows from a CSV stream with the fixed header
// parent_id,child_id,event_year,event_type,confidence,weight_type[,region].
// Region is optional per row; the header row is optional.
func ReadLineage(r io.Reader) ([]LineageRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []LineageRow
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line+1, err)
		}
		line++
		if line == 1 && rec[0] == "parent_id" {
			continue
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("%w: line %d: want at least 6 fields, got %d", ErrBadRow, line, len(rec))
		}
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: event_year %q", ErrBadRow, line, rec[2])
		}
		confidence, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: confidence %q", ErrBadRow, line, rec[4])
		}
		row := LineageRow{
			LineageEvent: model.LineageEvent{
				ParentID:   rec[0],
				ChildID:    rec[1],
				EventYear:  year,
				EventType:  rec[3],
				Confidence: confidence,
				WeightType: rec[5],
			},
		}
		if len(rec) > 6 {
			row.Region = rec[6]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LineageRow pairs a lineage event with the region it is filed under.
type LineageRow struct {
	model.LineageEvent
	Region string
}

// WritePanel upserts metric rows in batches inside one transaction.
func WritePanel(ctx context.Context, db *sqlx.DB, rows []model.MetricObservation) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const stmt = `INSERT INTO unit_metrics (unit_id, year, variable, value)
		VALUES (:unit_id, :year, :variable, :value)
		ON CONFLICT (unit_id, year, variable) DO UPDATE SET value = EXCLUDED.value`

	written := 0
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.NamedExecContext(ctx, stmt, rows[start:end]); err != nil {
			return written, fmt.Errorf("insert metrics batch at %d: %w", start, err)
		}
		written = end
	}
	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// WriteLineage upserts lineage rows inside one transaction.
func WriteLineage(ctx context.Context, db *sqlx.DB, rows []LineageRow) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const stmt = `INSERT INTO unit_lineage
			(parent_id, child_id, event_year, event_type, confidence, weight_type, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (parent_id, child_id, event_year) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			confidence = EXCLUDED.confidence,
			weight_type = EXCLUDED.weight_type,
			region = EXCLUDED.region`

	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, stmt,
			row.ParentID, row.ChildID, row.EventYear, row.EventType,
			row.Confidence, row.WeightType, row.Region,
		); err != nil {
			return i, fmt.Errorf("insert lineage row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return len(rows), fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}
