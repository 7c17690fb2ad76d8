package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"portfolio-contact/internal/contact"
)

// ContactRow matches the Glue table columns. dt is the partition key and is
// not stored in the file.
type ContactRow struct {
	ID         string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name       string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Email      string `parquet:"name=email, type=BYTE_ARRAY, convertedtype=UTF8"`
	Message    string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReceivedAt string `parquet:"name=received_at, type=BYTE_ARRAY, convertedtype=UTF8"` // RFC 3339
}

func rowFor(s contact.StoredSubmission) ContactRow {
	return ContactRow{
		ID:         s.ID,
		Name:       s.Name,
		Email:      s.Email,
		Message:    s.Message,
		ReceivedAt: s.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}
}

// encodeParquet writes rows to a temp file and returns its bytes.
func encodeParquet(rows []ContactRow) ([]byte, error) {
	localPath := filepath.Join(os.TempDir(), "contacts_"+uuid.NewString()+".parquet")
	defer func() { _ = os.Remove(localPath) }()

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return nil, fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(ContactRow), 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0 // uncompressed

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return nil, fmt.Errorf("parquet write row %s: %w", row.ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read parquet tmp: %w", err)
	}
	return data, nil
}
