// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package ingest implements the live location update pipeline: verify the
// caller, validate the payload, authorize, mark presence, fan out, and
// append to the track store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/metrics"
	"github.com/neogeo/surveyor-tracking/internal/models"
	"github.com/neogeo/surveyor-tracking/internal/validation"
)

// Pipeline error taxonomy. Unauthorized and InvalidInput are returned
// before any mutation; StoreFailure means the fan-out may already have
// delivered the update even though it was not persisted.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrStoreFailure = errors.New("store failure")
)

// Credential carries the caller's Basic credentials.
type Credential struct {
	Username string
	Password string
}

// Verifier authenticates a credential against the roster.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*models.Surveyor, error)
}

// Toucher marks a surveyor as active on the presence clock.
type Toucher interface {
	Touch(surveyorID string)
}

// Publisher fans a message out to local subscribers.
type Publisher interface {
	Publish(surveyorID string, msg models.LiveLocationMessage) int
}

// EventPublisher forwards accepted updates to the event stream for
// multi-instance delivery. Optional.
type EventPublisher interface {
	PublishLocation(ctx context.Context, msg models.LiveLocationMessage) error
}

// Appender persists a sample in the track store.
type Appender interface {
	InsertLocationSample(ctx context.Context, sample *models.LocationSample) error
}

// Ingestor runs the update pipeline. All collaborators are injected; the
// zero value is not usable.
type Ingestor struct {
	verifier Verifier
	clock    Toucher
	hub      Publisher
	events   EventPublisher // nil when event streaming is disabled
	store    Appender
	now      func() time.Time
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithEventPublisher enables event-stream publication of accepted updates.
func WithEventPublisher(events EventPublisher) Option {
	return func(i *Ingestor) {
		i.events = events
	}
}

// WithNow injects the time source. Tests use this to control the receipt
// timestamp.
func WithNow(now func() time.Time) Option {
	return func(i *Ingestor) {
		i.now = now
	}
}

// New creates an Ingestor.
func New(verifier Verifier, clock Toucher, hub Publisher, store Appender, opts ...Option) *Ingestor {
	ing := &Ingestor{
		verifier: verifier,
		clock:    clock,
		hub:      hub,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest processes one live location update.
//
// Step order is part of the contract: credential verification and payload
// validation happen before any mutation; the fan-out publish happens
// BEFORE the store append, so subscribers see updates at wire speed even
// when the store is slow. A store failure after a successful publish is
// reported as ErrStoreFailure and is not retried here.
func (i *Ingestor) Ingest(ctx context.Context, update models.LiveLocationMessage, cred Credential) (*models.IngestAck, error) {
	start := i.now()

	caller, err := i.verifier.Verify(ctx, cred.Username, cred.Password)
	if err != nil {
		metrics.RecordIngest("unauthorized", i.now().Sub(start))
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if verr := validation.ValidateStruct(&update); verr != nil {
		metrics.RecordIngest("invalid", i.now().Sub(start))
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, verr)
	}

	// A surveyor may only report their own position; admins may report on
	// behalf of any surveyor.
	if caller.ID != update.SurveyorID && caller.Role != models.RoleAdmin {
		metrics.RecordIngest("unauthorized", i.now().Sub(start))
		return nil, fmt.Errorf("%w: caller %s may not update surveyor %s", ErrUnauthorized, caller.ID, update.SurveyorID)
	}

	i.clock.Touch(caller.ID)

	delivered := i.hub.Publish(update.SurveyorID, update)
	metrics.BroadcastDeliveries.Add(float64(delivered))

	if i.events != nil {
		if err := i.events.PublishLocation(ctx, update); err != nil {
			// Local delivery already succeeded; losing the stream event
			// degrades multi-instance fan-out but must not fail the update.
			logging.Ctx(ctx).Warn().Err(err).
				Str("surveyor_id", update.SurveyorID).
				Msg("Event stream publish failed")
		}
	}

	sample := update.Sample()
	appendStart := i.now()
	err = i.store.InsertLocationSample(ctx, &sample)
	metrics.RecordStoreAppend(i.now().Sub(appendStart), err)
	if err != nil {
		metrics.RecordIngest("store_failure", i.now().Sub(start))
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	metrics.RecordIngest("accepted", i.now().Sub(start))
	return &models.IngestAck{
		AckID:      uuid.New().String(),
		SurveyorID: update.SurveyorID,
		ReceivedAt: update.Timestamp,
		Delivered:  delivered,
	}, nil
}
