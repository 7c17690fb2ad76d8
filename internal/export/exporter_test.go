package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"portfolio-contact/internal/config"
	"portfolio-contact/internal/contact"
)

type fakeLister struct {
	byDay map[string][]contact.StoredSubmission
	days  []string
}

func (f *fakeLister) ListDay(_ context.Context, day time.Time) ([]contact.StoredSubmission, error) {
	d := day.Format("2006-01-02")
	f.days = append(f.days, d)
	return f.byDay[d], nil
}

type putCall struct {
	bucket, key string
	body        []byte
}

type fakeS3 struct {
	puts []putCall
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, putCall{bucket: aws.ToString(in.Bucket), key: aws.ToString(in.Key), body: b})
	return &s3.PutObjectOutput{}, nil
}

type fakeGlue struct {
	created   []*glue.CreatePartitionInput
	createErr error
}

func (f *fakeGlue) GetTable(_ context.Context, in *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	return &glue.GetTableOutput{Table: &gluetypes.Table{
		Name: in.Name,
		StorageDescriptor: &gluetypes.StorageDescriptor{
			Location:    aws.String("s3://exports/contacts/"),
			InputFormat: aws.String("org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"),
		},
	}}, nil
}

func (f *fakeGlue) CreatePartition(_ context.Context, in *glue.CreatePartitionInput, _ ...func(*glue.Options)) (*glue.CreatePartitionOutput, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &glue.CreatePartitionOutput{}, nil
}

var exportNow = time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC)

func sampleRows() map[string][]contact.StoredSubmission {
	return map[string][]contact.StoredSubmission{
		"2025-03-14": {
			{ID: "a", ReceivedAt: exportNow, Submission: contact.Submission{Name: "Jane", Email: "jane@x.com", Message: "Hello, I'd like to connect."}},
			{ID: "b", ReceivedAt: exportNow.Add(time.Minute), Submission: contact.Submission{Name: "Bob", Email: "bob@x.com", Message: "Another message here."}},
		},
	}
}

func newTestExporter(l DayLister, s S3Putter, g GlueClient, cfg config.ExportConfig) *Exporter {
	e := NewExporter(l, s, g, cfg, nil)
	e.now = func() time.Time { return exportNow }
	e.newID = func() string { return "fixed" }
	return e
}

func TestExportWritesPartitionedParquet(t *testing.T) {
	lister := &fakeLister{byDay: sampleRows()}
	s3c := &fakeS3{}
	g := &fakeGlue{}
	cfg := config.ExportConfig{Bucket: "exports", Prefix: "contacts", DaysBack: 2, GlueDatabase: "portfolio", GlueTable: "contacts"}

	res, err := newTestExporter(lister, s3c, g, cfg).Handle(context.Background(), events.CloudWatchEvent{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Join(lister.days, ",") != "2025-03-14,2025-03-13" {
		t.Fatalf("days scanned: %v", lister.days)
	}
	if res.Files != 1 || res.Rows != 2 || res.Partitions != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	if len(s3c.puts) != 1 {
		t.Fatalf("expected one object, got %d", len(s3c.puts))
	}
	put := s3c.puts[0]
	if put.bucket != "exports" || put.key != "contacts/dt=2025-03-14/part-fixed.parquet" {
		t.Fatalf("unexpected object s3://%s/%s", put.bucket, put.key)
	}
	if !bytes.HasPrefix(put.body, []byte("PAR1")) || !bytes.HasSuffix(put.body, []byte("PAR1")) {
		t.Fatal("object is not a parquet file")
	}

	if len(g.created) != 1 {
		t.Fatalf("expected one partition, got %d", len(g.created))
	}
	pi := g.created[0].PartitionInput
	if len(pi.Values) != 1 || pi.Values[0] != "2025-03-14" {
		t.Errorf("partition values: %v", pi.Values)
	}
	if aws.ToString(pi.StorageDescriptor.Location) != "s3://exports/contacts/dt=2025-03-14/" {
		t.Errorf("partition location: %s", aws.ToString(pi.StorageDescriptor.Location))
	}
	if aws.ToString(pi.StorageDescriptor.InputFormat) == "" {
		t.Error("storage descriptor should be copied from the table")
	}
}

func TestExportToleratesExistingPartition(t *testing.T) {
	g := &fakeGlue{createErr: &gluetypes.AlreadyExistsException{Message: aws.String("exists")}}
	cfg := config.ExportConfig{Bucket: "exports", Prefix: "contacts/", DaysBack: 1, GlueDatabase: "portfolio", GlueTable: "contacts"}

	res, err := newTestExporter(&fakeLister{byDay: sampleRows()}, &fakeS3{}, g, cfg).Handle(context.Background(), events.CloudWatchEvent{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Files != 1 || res.Partitions != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExportSkipsGlueWhenUnconfigured(t *testing.T) {
	g := &fakeGlue{}
	cfg := config.ExportConfig{Bucket: "exports", Prefix: "contacts/", DaysBack: 1}
	if _, err := newTestExporter(&fakeLister{byDay: sampleRows()}, &fakeS3{}, g, cfg).Handle(context.Background(), events.CloudWatchEvent{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(g.created) != 0 {
		t.Fatal("glue should not be called without database and table")
	}
}

func TestExportErrors(t *testing.T) {
	if _, err := newTestExporter(&fakeLister{}, &fakeS3{}, nil, config.ExportConfig{}).Handle(context.Background(), events.CloudWatchEvent{}); err == nil {
		t.Fatal("expected missing bucket error")
	}

	s3c := &fakeS3{err: errors.New("access denied")}
	cfg := config.ExportConfig{Bucket: "exports", DaysBack: 1}
	if _, err := newTestExporter(&fakeLister{byDay: sampleRows()}, s3c, nil, cfg).Handle(context.Background(), events.CloudWatchEvent{}); err == nil {
		t.Fatal("expected s3 error")
	}
}

func TestExportEmptyWindow(t *testing.T) {
	s3c := &fakeS3{}
	cfg := config.ExportConfig{Bucket: "exports", Prefix: "contacts/", DaysBack: 3}
	res, err := newTestExporter(&fakeLister{}, s3c, nil, cfg).Handle(context.Background(), events.CloudWatchEvent{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Files != 0 || len(s3c.puts) != 0 || res.DaysBack != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}
