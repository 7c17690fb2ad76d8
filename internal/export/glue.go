package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
)

type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
	CreatePartition(ctx context.Context, params *glue.CreatePartitionInput, optFns ...func(*glue.Options)) (*glue.CreatePartitionOutput, error)
}

// registerPartition adds dt=<day> to the catalog, reusing the table's storage
// descriptor with the partition location swapped in. It reports false when
// the partition already existed.
func registerPartition(ctx context.Context, c GlueClient, database, table, day, location string) (bool, error) {
	out, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if err != nil {
		return false, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}
	if out.Table == nil || out.Table.StorageDescriptor == nil {
		return false, fmt.Errorf("glue table %s.%s has no storage descriptor", database, table)
	}

	sd := *out.Table.StorageDescriptor
	sd.Location = aws.String(location)

	_, err = c.CreatePartition(ctx, &glue.CreatePartitionInput{
		DatabaseName: aws.String(database),
		TableName:    aws.String(table),
		PartitionInput: &gluetypes.PartitionInput{
			Values:            []string{day},
			StorageDescriptor: &sd,
		},
	})
	if err != nil {
		var exists *gluetypes.AlreadyExistsException
		if errors.As(err, &exists) {
			return false, nil
		}
		return false, fmt.Errorf("glue CreatePartition %s.%s dt=%s: %w", database, table, day, err)
	}
	return true, nil
}
