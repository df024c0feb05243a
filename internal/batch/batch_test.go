package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/polyglot-go/internal/graph"
	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/ratelimit"
	"github.com/olegiv/polyglot-go/internal/registry"
	"github.com/olegiv/polyglot-go/internal/store"
	"github.com/olegiv/polyglot-go/internal/testutil"
	"github.com/olegiv/polyglot-go/internal/translator"
)

// fakeProducer mints sequential element IDs and can fail per target
// locale.
type fakeProducer struct {
	nextID   atomic.Int64
	failOn   map[string]error
	produced atomic.Int64
}

func (p *fakeProducer) SourceLocale(ctx context.Context, source model.ElementRef) (string, error) {
	return "en", nil
}

func (p *fakeProducer) Produce(ctx context.Context, source model.ElementRef, sourceLocale, targetLocale, backend string) (model.ElementRef, error) {
	if err, ok := p.failOn[targetLocale]; ok {
		return model.ElementRef{}, err
	}
	p.produced.Add(1)
	return model.ElementRef{ID: 1000 + p.nextID.Add(1), Kind: source.Kind}, nil
}

func newTestOrchestrator(t *testing.T, quota int64, producer Producer) *Orchestrator {
	t.Helper()
	db := testutil.TestDB(t)
	testutil.SeedLanguages(t, db, "en", "es", "fr", "de", "it", "pl")
	resolver := graph.NewResolver(graph.NewStore(db))
	reg := registry.New(store.New(db))
	limiter := ratelimit.New(quota, time.Minute)
	return New(resolver, reg, limiter, producer, testutil.TestLoggerSilent(), 3)
}

func job(id int64, target string) model.Job {
	return model.Job{
		Source:       model.ElementRef{ID: id, Kind: model.ElementKindPost},
		TargetLocale: target,
	}
}

func TestRunPartialFailureIsolation(t *testing.T) {
	producer := &fakeProducer{
		failOn: map[string]error{
			"fr": fmt.Errorf("%w: 503 from upstream", translator.ErrBackendUnavailable),
		},
	}
	o := newTestOrchestrator(t, 100, producer)

	jobs := []model.Job{job(1, "es"), job(1, "fr"), job(1, "de")}
	summary, err := o.Run(context.Background(), "key-1", jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %d ok / %d failed, want 2/1", summary.Succeeded, summary.Failed)
	}

	// Results come back in input order regardless of scheduling.
	for i, r := range summary.Results {
		if r.TargetLocale != jobs[i].TargetLocale {
			t.Errorf("result %d target = %s, want %s", i, r.TargetLocale, jobs[i].TargetLocale)
		}
	}
	if r := summary.Results[1]; r.FailureCode != model.FailureBackendUnavailable {
		t.Errorf("fr failure code = %q, want backend_unavailable", r.FailureCode)
	}
	if summary.Results[0].TRID == 0 || summary.Results[0].TRID != summary.Results[2].TRID {
		t.Error("surviving jobs must share the source's group")
	}
}

func TestRunRateLimited(t *testing.T) {
	producer := &fakeProducer{}
	o := newTestOrchestrator(t, 3, producer)

	jobs := []model.Job{job(1, "es"), job(1, "fr"), job(1, "de"), job(1, "it"), job(1, "pl")}
	summary, err := o.Run(context.Background(), "key-1", jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Succeeded != 3 {
		t.Errorf("succeeded = %d, want 3 (the quota)", summary.Succeeded)
	}
	if summary.Failed != 2 {
		t.Errorf("failed = %d, want 2", summary.Failed)
	}
	for _, r := range summary.Results {
		if r.Failed() && r.FailureCode != model.FailureRateLimited {
			t.Errorf("failure code = %q, want rate_limited", r.FailureCode)
		}
	}
	if producer.produced.Load() != 3 {
		t.Errorf("produced = %d, refused jobs must not reach the producer", producer.produced.Load())
	}
}

func TestRunIdempotentRepeat(t *testing.T) {
	producer := &fakeProducer{}
	o := newTestOrchestrator(t, 100, producer)
	ctx := context.Background()

	first, err := o.Run(ctx, "key-1", []model.Job{job(1, "es")})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := o.Run(ctx, "key-1", []model.Job{job(1, "es")})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if second.Skipped != 1 {
		t.Errorf("second run skipped = %d, want 1", second.Skipped)
	}
	r1, r2 := first.Results[0], second.Results[0]
	if r2.Element == nil || *r2.Element != *r1.Element {
		t.Errorf("skipped result element = %v, want existing member %v", r2.Element, r1.Element)
	}
	if producer.produced.Load() != 1 {
		t.Errorf("produced = %d, repeats must not translate again", producer.produced.Load())
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	o := newTestOrchestrator(t, 100, &fakeProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.Run(ctx, "key-1", []model.Job{job(1, "es"), job(1, "fr")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 2 {
		t.Fatalf("failed = %d, want all jobs failed", summary.Failed)
	}
	for _, r := range summary.Results {
		if r.FailureCode != model.FailureCancelled {
			t.Errorf("failure code = %q, want cancelled", r.FailureCode)
		}
	}
}

func TestRunWholeCallErrors(t *testing.T) {
	o := newTestOrchestrator(t, 100, &fakeProducer{})
	ctx := context.Background()

	if _, err := o.Run(ctx, "key-1", nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch err = %v, want ErrEmptyBatch", err)
	}

	big := make([]model.Job, MaxBatchSize+1)
	for i := range big {
		big[i] = job(int64(i+1), "es")
	}
	if _, err := o.Run(ctx, "key-1", big); err == nil {
		t.Error("oversized batch must be refused whole")
	}
}

func TestRunOneValidation(t *testing.T) {
	o := newTestOrchestrator(t, 100, &fakeProducer{})
	ctx := context.Background()

	tests := []struct {
		name     string
		job      model.Job
		wantCode string
	}{
		{"inactive locale", job(1, "zz"), model.FailureUnsupportedLocalePair},
		{"same locale", job(1, "en"), model.FailureUnsupportedLocalePair},
		{"bad element kind", model.Job{Source: model.ElementRef{ID: 1, Kind: "widget"}, TargetLocale: "es"}, model.FailureInternal},
		{"zero element id", model.Job{Source: model.ElementRef{Kind: model.ElementKindPost}, TargetLocale: "es"}, model.FailureInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := o.RunOne(ctx, "key-1", tt.job)
			if !r.Failed() || r.FailureCode != tt.wantCode {
				t.Errorf("result = %s/%s, want failed/%s", r.Status, r.FailureCode, tt.wantCode)
			}
		})
	}
}
