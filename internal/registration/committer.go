package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/pubsub"
	"github.com/vofmun/registrar/internal/referral"
)

// ReferralResolver is the capability the committer needs from the
// referral engine.
type ReferralResolver interface {
	Resolve(ctx context.Context, raw []string) referral.Resolution
}

// Created is published on the event broker after a successful insert.
// The notification dispatcher consumes it off the request path.
type Created struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      Role

	// RawPaymentStatus is the client's original answer ("yes"/"no"/...),
	// which selects the notification kind.
	RawPaymentStatus string
	ProofFileName    string
}

// Outcome is the single terminal success result of a commit.
type Outcome struct {
	UserID  string
	Message string
}

// Committer orchestrates the intake pipeline:
// proof upload (optional) -> payload validation -> referral resolution ->
// durable insert -> created event. Referral checking deliberately runs
// after proof upload and validation: codes are optional and cheapest to
// resubmit, so a typo must not waste an already-completed upload.
type Committer struct {
	resolver ReferralResolver
	proofs   ProofUploader
	repo     Repository
	events   *pubsub.Broker[Created]
	tracer   trace.Tracer
}

// NewCommitter wires the pipeline. events may be nil when no
// notification dispatch is wanted (tests).
func NewCommitter(resolver ReferralResolver, proofs ProofUploader, repo Repository, events *pubsub.Broker[Created]) *Committer {
	return &Committer{
		resolver: resolver,
		proofs:   proofs,
		repo:     repo,
		events:   events,
		tracer:   otel.Tracer("registrar/committer"),
	}
}

// Commit runs one submission through the pipeline and returns exactly
// one terminal result: an Outcome, or a classified error
// (*ValidationError, *ReferralError, ErrEmailExists, storage errors).
//
// Proof upload happens first by design: a submission that later fails
// validation leaves an orphaned artifact in the object store. That
// window is accepted; there is no compensating delete.
func (c *Committer) Commit(ctx context.Context, env *Envelope) (*Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "registration.commit")
	defer span.End()

	proof, err := c.uploadProof(ctx, env)
	if err != nil {
		return nil, c.fail(span, err)
	}

	reg, err := c.validate(ctx, env)
	if err != nil {
		return nil, c.fail(span, err)
	}

	if err := c.resolveReferrals(ctx, env, reg); err != nil {
		return nil, c.fail(span, err)
	}

	reg.ID = uuid.NewString()
	reg.PaymentStatus = env.NormalizedPaymentStatus()
	reg.Proof = proof
	reg.CreatedAt = time.Now().UTC()

	if err := c.insert(ctx, reg); err != nil {
		return nil, c.fail(span, err)
	}

	span.SetAttributes(
		attribute.String("registration.id", reg.ID),
		attribute.String("registration.role", string(reg.Role)),
	)
	log.Info(log.CatHTTP, "registration committed",
		"id", reg.ID, "role", reg.Role, "paymentStatus", reg.PaymentStatus)

	c.publishCreated(env, reg)

	return &Outcome{
		UserID:  reg.ID,
		Message: "Registration submitted successfully!",
	}, nil
}

func (c *Committer) uploadProof(ctx context.Context, env *Envelope) (*PaymentProof, error) {
	if !env.DeclaresPaymentCompleted() {
		return nil, nil
	}
	ctx, span := c.tracer.Start(ctx, "registration.commit.proof_upload")
	defer span.End()

	if env.PaymentConfirmation == nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "paymentConfirmation", Message: "is required when payment is declared completed"},
		}}
	}
	proof, err := c.proofs.Upload(ctx, *env.PaymentConfirmation)
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (c *Committer) validate(ctx context.Context, env *Envelope) (*Registration, error) {
	_, span := c.tracer.Start(ctx, "registration.commit.validate")
	defer span.End()
	return ValidateEnvelope(env)
}

func (c *Committer) resolveReferrals(ctx context.Context, env *Envelope, reg *Registration) error {
	ctx, span := c.tracer.Start(ctx, "registration.commit.referrals")
	defer span.End()

	resolution := c.resolver.Resolve(ctx, env.RawReferralCodes())
	if resolution.HasInvalid() {
		return &ReferralError{Invalid: resolution.Invalid}
	}
	if len(resolution.Valid) > 0 {
		reg.ReferralCodes = resolution.Valid
	}
	return nil
}

func (c *Committer) insert(ctx context.Context, reg *Registration) error {
	ctx, span := c.tracer.Start(ctx, "registration.commit.insert")
	defer span.End()

	if err := c.repo.Insert(ctx, reg); err != nil {
		return err
	}
	return nil
}

// publishCreated hands the committed registration to the notification
// dispatcher. Non-blocking; the response never waits on email.
func (c *Committer) publishCreated(env *Envelope, reg *Registration) {
	if c.events == nil {
		return
	}
	created := Created{
		UserID:           reg.ID,
		Email:            reg.Email,
		FirstName:        reg.FirstName,
		LastName:         reg.LastName,
		Role:             reg.Role,
		RawPaymentStatus: env.PaymentStatus,
	}
	if reg.Proof != nil {
		created.ProofFileName = reg.Proof.FileName
	}
	c.events.Publish(pubsub.CreatedEvent, created)
}

// fail marks the span and passes the error through unchanged so the
// HTTP boundary can classify it exactly once.
func (c *Committer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("commit: %w", err)
}
