package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/abacsys/decision-service/pkg/audit"
)

// runArchiveCmd pushes every AccessLog row older than --older-than-days to S3
// cold storage (SPEC_FULL.md §C.2). It never deletes rows from the hot
// table itself — pruning is left to an operator once the upload is
// confirmed, so a failed run can never lose audit history.
func runArchiveCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bucket := fs.String("bucket", "", "S3 bucket to archive into (required)")
	region := fs.String("region", "us-east-1", "AWS region")
	endpoint := fs.String("endpoint", "", "S3-compatible endpoint override (MinIO/LocalStack)")
	prefix := fs.String("prefix", "access-logs/", "object key prefix")
	olderThanDays := fs.Int("older-than-days", 90, "archive rows created before now minus this many days")
	dbURL := fs.String("database-url", "", "Postgres DSN; empty uses DATABASE_URL, or dev SQLite when that is unset")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *bucket == "" {
		fmt.Fprintln(stderr, "abacd archive: --bucket is required")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := openStores(ctx, resolveDBURL(*dbURL))
	if err != nil {
		fmt.Fprintf(stderr, "abacd archive: %v\n", err)
		return 1
	}
	defer st.db.Close()

	archiver, err := audit.NewArchiver(ctx, st.audit, audit.ArchiverConfig{
		Bucket:   *bucket,
		Region:   *region,
		Endpoint: *endpoint,
		Prefix:   *prefix,
	})
	if err != nil {
		fmt.Fprintf(stderr, "abacd archive: %v\n", err)
		return 1
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -*olderThanDays)
	result, err := archiver.ArchiveBefore(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(stderr, "abacd archive: %v\n", err)
		return 1
	}

	if result.RecordCount == 0 {
		fmt.Fprintln(stdout, "abacd archive: nothing to archive")
		return 0
	}
	fmt.Fprintf(stdout, "abacd archive: wrote %d record(s) to s3://%s/%s\n", result.RecordCount, *bucket, result.ObjectKey)
	return 0
}
