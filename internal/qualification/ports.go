package qualification

import (
	"context"
	"time"

	"donorlink/internal/logger"
	"donorlink/internal/metrics"
	"donorlink/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// RequestLookup loads the blood request a donor is screening for.
// Implementations return ErrRequestNotFound when it does not exist.
type RequestLookup interface {
	GetRequest(ctx context.Context, requestID string) (*model.BloodRequest, error)
}

// RecordUpdate is the terminal write for a qualification record.
type RecordUpdate struct {
	Status         model.QualificationStatus
	Responses      map[string]string
	Reason         string
	IdempotencyKey string
}

// RecordStore persists qualification records. UpdateRecord must apply only
// when the record is pending or already carries the same IdempotencyKey.
type RecordStore interface {
	CreateRecord(ctx context.Context, requestID, donorID string) (string, error)
	UpdateRecord(ctx context.Context, recordID string, u RecordUpdate) error
}

// RequestAcceptor marks a request accepted by a donor. It must apply only
// when the request is pending or was accepted under the same key, and return
// ErrRequestAlreadyAccepted otherwise.
type RequestAcceptor interface {
	AcceptRequest(ctx context.Context, requestID, donorID, idempotencyKey string) error
}

// RetryPolicy bounds how terminal writes are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0
	eb.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// Deps are the collaborators a flow needs. Questions, Requests, Records and
// Acceptor are required; a Policy without rules falls back to DefaultPolicy.
type Deps struct {
	Questions *QuestionSet
	Policy    ScreeningPolicy
	Requests  RequestLookup
	Records   RecordStore
	Acceptor  RequestAcceptor
	Retry     RetryPolicy
	Logger    logger.Logger
	Metrics   *metrics.Metrics
	NewKey    func() string
}

func (d Deps) withDefaults() (Deps, error) {
	switch {
	case d.Questions == nil:
		return d, errMissingDep("Questions")
	case d.Requests == nil:
		return d, errMissingDep("Requests")
	case d.Records == nil:
		return d, errMissingDep("Records")
	case d.Acceptor == nil:
		return d, errMissingDep("Acceptor")
	}
	if len(d.Policy.Rules) == 0 {
		match := d.Policy.Match
		d.Policy = DefaultPolicy()
		if match != nil {
			d.Policy.Match = match
		}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.NewKey == nil {
		d.NewKey = uuid.NewString
	}
	return d, nil
}

type errMissingDep string

func (e errMissingDep) Error() string {
	return "qualification: missing dependency " + string(e)
}
