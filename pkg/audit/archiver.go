package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver batches aged-out AccessLog rows into newline-delimited JSON
// objects and uploads them to S3 for long-term retention (SPEC_FULL.md
// §C.2). It reads through a Reader and never deletes rows itself —
// pruning the hot table is a separate, explicit step the caller takes
// only after the upload is confirmed, so a failed archive run never
// loses data.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	reader Reader
}

// ArchiverConfig configures the S3 destination for archived batches.
type ArchiverConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for MinIO/LocalStack
	Prefix   string // key prefix, e.g. "access-logs/"
}

// NewArchiver loads the default AWS config and builds an S3 client for
// cold-storage archival.
func NewArchiver(ctx context.Context, reader Reader, cfg ArchiverConfig) (*Archiver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("audit: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, reader: reader}, nil
}

// ArchiveBatchSize is the page size ArchiveBefore requests from the
// Reader; Page.Normalize clamps it to MaxPageSize, so each round trip
// returns at most MaxPageSize rows.
const ArchiveBatchSize = 500

// ArchiveResult summarizes one archival run.
type ArchiveResult struct {
	ObjectKey    string
	RecordCount  int
	ArchivedIDs  []string
}

// ArchiveBefore pages through every AccessLog row created at or before
// cutoff, writes them as newline-delimited JSON to a single S3
// object, and returns the ids archived so the caller can mark them
// archived (or delete them from the hot table) in a follow-up step.
// Returns a zero-value ArchiveResult (RecordCount 0) when there is
// nothing to archive.
func (a *Archiver) ArchiveBefore(ctx context.Context, cutoff time.Time) (ArchiveResult, error) {
	filter := Filter{To: &cutoff}
	page := Page{Number: 1, Size: ArchiveBatchSize}

	var buf bytes.Buffer
	var ids []string
	for {
		rows, total, err := a.reader.Query(ctx, filter, Sort{Field: SortCreatedAt, Direction: Ascending}, page)
		if err != nil {
			return ArchiveResult{}, fmt.Errorf("audit: archive query page %d: %w", page.Number, err)
		}
		for _, row := range rows {
			line, err := json.Marshal(row)
			if err != nil {
				return ArchiveResult{}, fmt.Errorf("audit: marshal access log %s: %w", row.ID, err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
			ids = append(ids, row.ID.String())
		}
		if int64(len(ids)) >= total || len(rows) == 0 {
			break
		}
		page.Number++
	}

	if len(ids) == 0 {
		return ArchiveResult{}, nil
	}

	key := fmt.Sprintf("%saccess-logs-%s.ndjson", a.prefix, cutoff.UTC().Format("20060102T150405Z"))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("audit: s3 put %s: %w", key, err)
	}

	return ArchiveResult{ObjectKey: key, RecordCount: len(ids), ArchivedIDs: ids}, nil
}
