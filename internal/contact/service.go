package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolio-contact/internal/logger"
)

// Store persists one submission. Implementations assign ID and ReceivedAt.
type Store interface {
	Insert(ctx context.Context, sub Submission) (StoredSubmission, error)
}

// Drafter produces a reply suggestion. It must not fail: provider problems
// come back as a placeholder Draft.
type Drafter interface {
	Draft(ctx context.Context, sub Submission) Draft
}

// FailurePolicy decides what a store failure does to the request.
type FailurePolicy string

const (
	// PolicyTolerant keeps going and reports success: the owner getting
	// notified matters more than the row.
	PolicyTolerant FailurePolicy = "tolerant"
	// PolicyStrict answers 500 and skips notification when the insert fails.
	PolicyStrict FailurePolicy = "strict"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyTolerant:
		return PolicyTolerant, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// ErrStoreFailed is returned by Submit under PolicyStrict.
var ErrStoreFailed = errors.New("store insert failed")

const DefaultTimeout = 5 * time.Second

type Options struct {
	Store   Store
	Drafter Drafter
	Sender  Sender

	// From and To address the owner notification.
	From string
	To   string

	Policy  FailurePolicy
	Timeout time.Duration
	Log     *logger.Logger
}

// Outcome records what each collaborator did for one request. It doubles as
// the debug diagnostics payload.
type Outcome struct {
	SubmissionID string `json:"submission_id,omitempty"`

	StoreConfigured bool `json:"store_configured"`
	Stored          bool `json:"store_success"`

	AIConfigured bool   `json:"ai_configured"`
	AIGenerated  bool   `json:"ai_generated"`
	AIErrorClass string `json:"ai_error_class,omitempty"`

	EmailConfigured bool   `json:"email_configured"`
	Notified        bool   `json:"email_success"`
	MessageID       string `json:"message_id,omitempty"`
}

// Service runs the submission workflow: validate, then store and draft in
// parallel, then notify.
type Service struct {
	store   Store
	drafter Drafter
	sender  Sender
	from    string
	to      string
	policy  FailurePolicy
	timeout time.Duration
	log     *logger.Logger
}

func NewService(opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyTolerant
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	return &Service{
		store:   opts.Store,
		drafter: opts.Drafter,
		sender:  opts.Sender,
		from:    opts.From,
		to:      opts.To,
		policy:  opts.Policy,
		timeout: opts.Timeout,
		log:     opts.Log.With("component", "contact_service"),
	}
}

// Submit validates sub and fans out to the collaborators. The only errors
// it returns are *ValidationError and, under PolicyStrict, ErrStoreFailed.
func (s *Service) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		StoreConfigured: s.store != nil,
		AIConfigured:    s.drafter != nil,
		EmailConfigured: s.sender != nil,
	}

	var (
		g      errgroup.Group
		stored StoredSubmission
		draft  Draft
	)

	if s.store != nil {
		g.Go(func() error {
			var err error
			stored, err = s.insert(ctx, sub)
			return err
		})
	}
	g.Go(func() error {
		draft = s.draft(ctx, sub)
		return nil
	})

	// Wait returns only the store error; the draft never fails.
	if err := g.Wait(); err != nil {
		s.log.Error("store insert failed", "collaborator", "store", "error", err, "policy", string(s.policy))
		if s.policy == PolicyStrict {
			return out, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
	} else if s.store != nil {
		out.Stored = true
		out.SubmissionID = stored.ID
	}

	out.AIGenerated = draft.Generated
	out.AIErrorClass = draft.ErrorClass

	if s.sender == nil {
		s.log.Warn("notification skipped: no sender configured", "submission_id", out.SubmissionID)
		return out, nil
	}

	email, err := RenderNotification(s.from, s.to, out.SubmissionID, sub, draft)
	if err != nil {
		s.log.Error("notification render failed", "collaborator", "email", "error", err)
		return out, nil
	}
	msgID, err := s.send(ctx, email)
	if err != nil {
		s.log.Error("notification failed", "collaborator", "email", "error", err, "submission_id", out.SubmissionID)
		return out, nil
	}
	out.Notified = true
	out.MessageID = msgID
	s.log.Info("contact submission processed",
		"submission_id", out.SubmissionID,
		"stored", out.Stored,
		"ai_generated", out.AIGenerated,
		"message_id", msgID,
	)
	return out, nil
}

func (s *Service) insert(ctx context.Context, sub Submission) (stored StoredSubmission, err error) {
	defer recoverAs(&err, "store")
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Insert(cctx, sub)
}

func (s *Service) draft(ctx context.Context, sub Submission) (d Draft) {
	if s.drafter == nil {
		return PlaceholderDraft(DraftUnavailable)
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("drafter panicked", "collaborator", "ai", "panic", r)
			d = PlaceholderDraft(DraftError)
		}
	}()
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.drafter.Draft(cctx, sub)
}

func (s *Service) send(ctx context.Context, email Email) (id string, err error) {
	defer recoverAs(&err, "email")
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sender.Send(cctx, email)
}

func recoverAs(err *error, collaborator string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", collaborator, r)
	}
}
