package audit

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abacsys/decision-service/pkg/model"
)

// fakeReader is an in-memory Reader stub for exporter tests; only
// Query is exercised by Exporter.Generate.
type fakeReader struct {
	rows []AccessLog
}

func (f *fakeReader) Query(ctx context.Context, filter Filter, sort Sort, page Page) ([]AccessLog, int64, error) {
	p := page.Normalize()
	start := p.Offset()
	if start >= len(f.rows) {
		return nil, int64(len(f.rows)), nil
	}
	end := start + p.Size
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[start:end], int64(len(f.rows)), nil
}

func (f *fakeReader) Statistics(ctx context.Context, r TimeRange) (Statistics, error) { return Statistics{}, nil }
func (f *fakeReader) TopResources(ctx context.Context, n int, r TimeRange) ([]ResourceCount, error) {
	return nil, nil
}
func (f *fakeReader) TopSubjects(ctx context.Context, n int, r TimeRange) ([]SubjectCount, error) {
	return nil, nil
}
func (f *fakeReader) DeniesByPolicy(ctx context.Context, r TimeRange) ([]PolicyDenyCount, error) {
	return nil, nil
}

func TestExporter_Generate(t *testing.T) {
	rows := make([]AccessLog, 3)
	for i := range rows {
		rows[i] = AccessLog{ID: uuid.New(), SubjectID: uuid.New(), Result: model.ResultPermit, CreatedAt: time.Now()}
	}
	exp := NewExporter(&fakeReader{rows: rows})

	data, checksum, err := exp.Generate(context.Background(), Filter{}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, checksum)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "access_logs.json")
	assert.Contains(t, names, "manifest.json")
}

func TestExporter_Generate_InvalidTimeRange(t *testing.T) {
	exp := NewExporter(&fakeReader{})
	_, _, err := exp.Generate(context.Background(), Filter{}, time.Now(), time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}
