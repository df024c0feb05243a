// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package batch orchestrates multi-job translation runs. Jobs are
// isolated from each other: one job's failure is recorded on its own
// result and the rest of the batch proceeds. The whole call errors only
// when the request itself is unusable, before any job has started.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/ratelimit"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/translator"
)

// DefaultConcurrency bounds simultaneous in-flight jobs per batch.
const DefaultConcurrency = 4

// MaxBatchSize caps one call; larger requests are refused whole.
const MaxBatchSize = 200

// ErrEmptyBatch is returned when a batch carries no jobs.
var ErrEmptyBatch = errors.New("batch contains no jobs")

// Producer supplies the content-layer half of a job: reading the source
// element's locale and creating the translated element.
type Producer interface {
	// SourceLocale returns the locale the source element is written in.
	SourceLocale(ctx context.Context, source model.ElementRef) (string, error)

	// Produce translates source into targetLocale through the named
	// backend and persists the new element. Called only once the target
	// locale is confirmed free within the group.
	Produce(ctx context.Context, source model.ElementRef, sourceLocale, targetLocale, backend string) (model.ElementRef, error)
}

// Orchestrator runs translation batches over the group resolver.
type Orchestrator struct {
	resolver    *graph.Resolver
	registry    *registry.Registry
	limiter     *ratelimit.Limiter
	producer    Producer
	log         *slog.Logger
	concurrency int
}

// New creates an orchestrator. concurrency <= 0 falls back to the default.
func New(resolver *graph.Resolver, reg *registry.Registry, limiter *ratelimit.Limiter, producer Producer, log *slog.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		resolver:    resolver,
		registry:    reg,
		limiter:     limiter,
		producer:    producer,
		log:         log,
		concurrency: concurrency,
	}
}

// Run executes jobs for actor and returns the full per-job outcome list
// in input order. Per-job faults never error the call; an error return
// means no job ran at all.
func (o *Orchestrator) Run(ctx context.Context, actor string, jobs []model.Job) (model.BatchSummary, error) {
	if len(jobs) == 0 {
		return model.BatchSummary{}, ErrEmptyBatch
	}
	if len(jobs) > MaxBatchSize {
		return model.BatchSummary{}, fmt.Errorf("batch of %d exceeds limit of %d jobs", len(jobs), MaxBatchSize)
	}

	results := make([]model.JobResult, len(jobs))

	// cancelled flips once the context dies so queued jobs fail fast
	// instead of starting doomed work.
	var cancelled atomic.Bool

	g := &errgroup.Group{}
	g.SetLimit(o.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if cancelled.Load() || ctx.Err() != nil {
				cancelled.Store(true)
				results[i] = failedResult(job, model.FailureCancelled, "batch cancelled before job started")
				return nil
			}
			results[i] = o.runJob(ctx, actor, job)
			if results[i].FailureCode == model.FailureCancelled {
				cancelled.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := model.Summarize(results)
	o.log.Info("translation batch finished",
		"actor", actor,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

// RunOne executes a single job, sharing the batch pipeline and its
// admission rules.
func (o *Orchestrator) RunOne(ctx context.Context, actor string, job model.Job) model.JobResult {
	return o.runJob(ctx, actor, job)
}

func (o *Orchestrator) runJob(ctx context.Context, actor string, job model.Job) model.JobResult {
	if err := job.Source.Validate(); err != nil {
		return failedResult(job, model.FailureInternal, err.Error())
	}

	if !o.registry.IsActive(ctx, job.TargetLocale) {
		return failedResult(job, model.FailureUnsupportedLocalePair,
			fmt.Sprintf("target locale %q is not active", job.TargetLocale))
	}

	// Admission happens before any translator work so a refused job
	// costs nothing downstream.
	if !o.limiter.TryAdmit(actor, 1) {
		return failedResult(job, model.FailureRateLimited, "translation quota exhausted for this window")
	}

	sourceLocale, err := o.producer.SourceLocale(ctx, job.Source)
	if err != nil {
		return failureFromError(job, err)
	}
	if sourceLocale == job.TargetLocale {
		return failedResult(job, model.FailureUnsupportedLocalePair,
			"source and target locale are identical")
	}

	outcome, err := o.resolver.ResolveAndAttach(ctx, job.Source, sourceLocale, job.TargetLocale,
		func(ctx context.Context) (model.ElementRef, error) {
			return o.producer.Produce(ctx, job.Source, sourceLocale, job.TargetLocale, job.Backend)
		})
	if err != nil {
		o.log.Warn("translation job failed",
			"source", job.Source.String(),
			"target", job.TargetLocale,
			"error", err)
		return failureFromError(job, err)
	}

	status := model.JobStatusSucceeded
	if outcome.Status == graph.OutcomeSkipped {
		status = model.JobStatusSkipped
	}
	element := outcome.Element
	return model.JobResult{
		Source:       job.Source,
		TargetLocale: job.TargetLocale,
		Status:       status,
		Element:      &element,
		TRID:         outcome.TRID,
	}
}

func failedResult(job model.Job, code, msg string) model.JobResult {
	return model.JobResult{
		Source:       job.Source,
		TargetLocale: job.TargetLocale,
		Status:       model.JobStatusFailed,
		FailureCode:  code,
		FailureMsg:   msg,
	}
}

// failureFromError maps typed errors from the graph and translator
// layers onto stable failure codes.
func failureFromError(job model.Job, err error) model.JobResult {
	var code string
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = model.FailureCancelled
	case errors.Is(err, translator.ErrBackendUnavailable):
		code = model.FailureBackendUnavailable
	case errors.Is(err, translator.ErrUnsupportedLocalePair):
		code = model.FailureUnsupportedLocalePair
	case errors.Is(err, translator.ErrContentRejected):
		code = model.FailureContentRejected
	case errors.Is(err, graph.ErrAlreadyGrouped):
		code = model.FailureAlreadyGrouped
	case errors.Is(err, graph.ErrLocaleTaken):
		code = model.FailureLocaleTaken
	case errors.Is(err, graph.ErrUnknownGroup):
		code = model.FailureUnknownGroup
	case errors.Is(err, graph.ErrInvalidSourceLocale):
		code = model.FailureInvalidSourceLocale
	default:
		code = model.FailureInternal
	}
	return failedResult(job, code, err.Error())
}
