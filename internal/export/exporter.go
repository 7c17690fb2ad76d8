package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"portfolio-contact/internal/config"
	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/logger"
	"portfolio-contact/internal/store"
)

// DayLister is implemented by store.DynamoStore.
type DayLister interface {
	ListDay(ctx context.Context, day time.Time) ([]contact.StoredSubmission, error)
}

type S3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

const maxDaysBack = 90

type Result struct {
	OK         bool     `json:"ok"`
	DaysBack   int      `json:"days_back"`
	Files      int      `json:"files"`
	Rows       int      `json:"rows"`
	Partitions int      `json:"partitions_added"`
	Keys       []string `json:"keys,omitempty"`
	Bucket     string   `json:"bucket"`
	Prefix     string   `json:"prefix"`
}

// Exporter copies each day's submissions into a dt-partitioned Parquet layout
// that Athena can query.
type Exporter struct {
	source DayLister
	s3     S3Putter
	glue   GlueClient
	cfg    config.ExportConfig
	log    *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewExporter builds an exporter. glue may be nil; partition registration is
// then skipped.
func NewExporter(source DayLister, s3c S3Putter, glue GlueClient, cfg config.ExportConfig, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Exporter{
		source: source,
		s3:     s3c,
		glue:   glue,
		cfg:    cfg,
		log:    log.With("component", "contacts_export"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Handle is triggered by an EventBridge schedule.
func (e *Exporter) Handle(ctx context.Context, _ events.CloudWatchEvent) (Result, error) {
	bucket := strings.TrimSpace(e.cfg.Bucket)
	if bucket == "" {
		return Result{}, fmt.Errorf("missing env EXPORT_BUCKET")
	}
	prefix := ensureTrailingSlash(strings.TrimSpace(e.cfg.Prefix))

	daysBack := e.cfg.DaysBack
	if daysBack <= 0 {
		daysBack = 1
	}
	if daysBack > maxDaysBack {
		daysBack = maxDaysBack
	}

	res := Result{OK: true, DaysBack: daysBack, Bucket: bucket, Prefix: prefix}
	now := e.now().UTC()

	for i := 0; i < daysBack; i++ {
		day := now.AddDate(0, 0, -i)
		dt := day.Format(store.DayLayout)

		subs, err := e.source.ListDay(ctx, day)
		if err != nil {
			return res, fmt.Errorf("list contacts dt=%s: %w", dt, err)
		}
		if len(subs) == 0 {
			e.log.Debug("no submissions for day", "dt", dt)
			continue
		}

		rows := make([]ContactRow, 0, len(subs))
		for _, s := range subs {
			rows = append(rows, rowFor(s))
		}
		data, err := encodeParquet(rows)
		if err != nil {
			return res, fmt.Errorf("encode dt=%s: %w", dt, err)
		}

		partition := fmt.Sprintf("%sdt=%s/", prefix, dt)
		key := fmt.Sprintf("%spart-%s.parquet", partition, e.newID())
		_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/octet-stream"),
			ACL:         s3types.ObjectCannedACLPrivate,
		})
		if err != nil {
			return res, fmt.Errorf("s3 PutObject %s: %w", key, err)
		}
		res.Files++
		res.Rows += len(rows)
		res.Keys = append(res.Keys, key)

		if e.glue != nil && e.cfg.GlueDatabase != "" && e.cfg.GlueTable != "" {
			location := fmt.Sprintf("s3://%s/%s", bucket, partition)
			added, err := registerPartition(ctx, e.glue, e.cfg.GlueDatabase, e.cfg.GlueTable, dt, location)
			if err != nil {
				return res, err
			}
			if added {
				res.Partitions++
			}
		}
		e.log.Info("exported contacts", "dt", dt, "rows", len(rows), "key", key)
	}
	return res, nil
}

func ensureTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
