package analytics

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"portfolio-contact/internal/config"
	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const dayLayout = "2006-01-02"

type DayCount struct {
	Day         string `json:"dt"`
	Submissions int64  `json:"submissions"`
}

type Digest struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Days  []DayCount `json:"days"`
	Total int64      `json:"total"`
}

// DigestQuery counts submissions per partition from the given day onward.
func DigestQuery(table string, from time.Time) (string, error) {
	table = strings.TrimSpace(table)
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("invalid athena table name %q", table)
	}
	return fmt.Sprintf(
		"SELECT dt, COUNT(*) AS submissions FROM %s WHERE dt >= '%s' GROUP BY dt ORDER BY dt",
		table, from.UTC().Format(dayLayout),
	), nil
}

func digestFromRows(rows []map[string]any, from, to time.Time) Digest {
	d := Digest{From: from.Format(dayLayout), To: to.Format(dayLayout)}
	for _, r := range rows {
		dt := fmt.Sprint(r["dt"])
		var n int64
		switch v := r["submissions"].(type) {
		case int64:
			n = v
		case float64:
			n = int64(v)
		}
		d.Days = append(d.Days, DayCount{Day: dt, Submissions: n})
		d.Total += n
	}
	return d
}

// Text renders the digest as the plain-text notification body.
func (d Digest) Text() string {
	lines := []string{
		"Portfolio contact digest",
		"",
		fmt.Sprintf("Period: %s to %s", d.From, d.To),
		"",
	}
	if len(d.Days) == 0 {
		lines = append(lines, "No submissions in this period.")
	}
	for _, dc := range d.Days {
		lines = append(lines, fmt.Sprintf("%s: %d", dc.Day, dc.Submissions))
	}
	lines = append(lines, "", fmt.Sprintf("Total: %d", d.Total))
	return strings.Join(lines, "\n")
}

func (d Digest) Subject() string {
	return fmt.Sprintf("Portfolio Contact digest: %d submissions since %s", d.Total, d.From)
}

// Digester queries the exported contacts table and sends a summary.
type Digester struct {
	athena AthenaClient
	sender contact.Sender
	cfg    config.DigestConfig
	log    *logger.Logger

	pollInterval time.Duration
	now          func() time.Time
}

func NewDigester(c AthenaClient, sender contact.Sender, cfg config.DigestConfig, log *logger.Logger) *Digester {
	if log == nil {
		log = logger.NewNop()
	}
	return &Digester{
		athena: c,
		sender: sender,
		cfg:    cfg,
		log:    log.With("component", "contacts_digest"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type DigestResult struct {
	OK        bool   `json:"ok"`
	QueryID   string `json:"query_id,omitempty"`
	Total     int64  `json:"total"`
	MessageID string `json:"message_id,omitempty"`
}

// Handle is triggered by an EventBridge schedule.
func (d *Digester) Handle(ctx context.Context, _ events.CloudWatchEvent) (DigestResult, error) {
	days := d.cfg.Days
	if days <= 0 {
		days = 7
	}
	to := d.now().UTC()
	from := to.AddDate(0, 0, -(days - 1))

	sql, err := DigestQuery(d.cfg.AthenaTable, from)
	if err != nil {
		return DigestResult{}, err
	}
	res, err := RunQuery(ctx, d.athena, sql, RunOptions{
		Database:       d.cfg.AthenaDatabase,
		Workgroup:      d.cfg.AthenaWorkgroup,
		OutputLocation: d.cfg.AthenaOutputS3,
		PollInterval:   d.pollInterval,
	})
	if err != nil {
		return DigestResult{}, fmt.Errorf("digest query: %w", err)
	}

	dg := digestFromRows(res.Rows, from, to)
	out := DigestResult{OK: true, QueryID: res.QueryExecutionID, Total: dg.Total}

	if d.sender == nil {
		d.log.Warn("digest not sent: no sender configured", "total", dg.Total)
		return out, nil
	}
	msgID, err := d.sender.Send(ctx, contact.Email{Subject: dg.Subject(), Text: dg.Text()})
	if err != nil {
		return out, fmt.Errorf("send digest: %w", err)
	}
	out.MessageID = msgID
	d.log.Info("digest sent", "total", dg.Total, "days", len(dg.Days), "query_id", res.QueryExecutionID)
	return out, nil
}
