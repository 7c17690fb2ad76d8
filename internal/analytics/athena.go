package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaClient interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type RunOptions struct {
	Database       string
	Workgroup      string
	OutputLocation string // s3://.../athena-results/
	MaxWait        time.Duration
	PollInterval   time.Duration
	MaxResultRows  int
}

type QueryResult struct {
	QueryExecutionID string
	Columns          []string
	Rows             []map[string]any
	ScannedBytes     int64
}

type AthenaError struct {
	State            string
	Reason           string
	QueryExecutionID string
}

func (e *AthenaError) Error() string {
	if e.QueryExecutionID != "" {
		return fmt.Sprintf("athena %s: %s (qid=%s)", e.State, e.Reason, e.QueryExecutionID)
	}
	return fmt.Sprintf("athena %s: %s", e.State, e.Reason)
}

// RunQuery starts sql, polls until it finishes and returns the rows keyed by
// column name. Numeric cells are returned as int64 or float64.
func RunQuery(ctx context.Context, c AthenaClient, sql string, opt RunOptions) (*QueryResult, error) {
	if strings.TrimSpace(opt.Database) == "" {
		return nil, fmt.Errorf("missing athena database")
	}
	if strings.TrimSpace(opt.Workgroup) == "" {
		return nil, fmt.Errorf("missing athena workgroup")
	}
	if strings.TrimSpace(opt.OutputLocation) == "" {
		return nil, fmt.Errorf("missing athena output location")
	}
	if opt.MaxWait == 0 {
		opt.MaxWait = 60 * time.Second
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 700 * time.Millisecond
	}
	if opt.MaxResultRows == 0 {
		opt.MaxResultRows = 500
	}

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(opt.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(opt.OutputLocation),
		},
		WorkGroup: aws.String(opt.Workgroup),
	})
	if err != nil {
		return nil, fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)

	exec, err := waitForQuery(ctx, c, qid, opt)
	if err != nil {
		return nil, err
	}

	var (
		nextToken *string
		allRows   []athenatypes.Row
		colInfo   []athenatypes.ColumnInfo
	)
	for {
		resOut, err := c.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(qid),
			NextToken:        nextToken,
			MaxResults:       aws.Int32(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryResults: %w", err)
		}
		if resOut.ResultSet == nil {
			break
		}
		if colInfo == nil && resOut.ResultSet.ResultSetMetadata != nil {
			colInfo = resOut.ResultSet.ResultSetMetadata.ColumnInfo
		}
		allRows = append(allRows, resOut.ResultSet.Rows...)
		if aws.ToString(resOut.NextToken) == "" || len(allRows) > opt.MaxResultRows {
			break
		}
		nextToken = resOut.NextToken
	}

	cols := make([]string, 0, len(colInfo))
	for _, ci := range colInfo {
		cols = append(cols, aws.ToString(ci.Name))
	}

	// The first row of the first page repeats the column names.
	rows := make([]map[string]any, 0, len(allRows))
	for i, r := range allRows {
		if i == 0 {
			continue
		}
		if len(rows) >= opt.MaxResultRows {
			break
		}
		m := make(map[string]any, len(cols))
		for ci, d := range r.Data {
			if ci >= len(cols) {
				continue
			}
			m[cols[ci]] = coerceScalar(aws.ToString(d.VarCharValue))
		}
		rows = append(rows, m)
	}

	res := &QueryResult{QueryExecutionID: qid, Columns: cols, Rows: rows}
	if exec != nil && exec.Statistics != nil {
		res.ScannedBytes = aws.ToInt64(exec.Statistics.DataScannedInBytes)
	}
	return res, nil
}

func waitForQuery(ctx context.Context, c AthenaClient, qid string, opt RunOptions) (*athenatypes.QueryExecution, error) {
	deadline := time.Now().Add(opt.MaxWait)
	for {
		if time.Now().After(deadline) {
			return nil, &AthenaError{State: "TIMEOUT", Reason: "query timed out", QueryExecutionID: qid}
		}
		getOut, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryExecution: %w", err)
		}
		exec := getOut.QueryExecution
		if exec == nil || exec.Status == nil {
			return nil, &AthenaError{State: "UNKNOWN", Reason: "missing query status", QueryExecutionID: qid}
		}

		switch exec.Status.State {
		case athenatypes.QueryExecutionStateSucceeded:
			return exec, nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			return nil, &AthenaError{
				State:            string(exec.Status.State),
				Reason:           aws.ToString(exec.Status.StateChangeReason),
				QueryExecutionID: qid,
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opt.PollInterval):
		}
	}
}

func coerceScalar(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
