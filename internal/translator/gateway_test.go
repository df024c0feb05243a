package translator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/olegiv/polyglot-go/internal/testutil"
)

// flakyProvider fails with failErr for failures calls, then succeeds.
type flakyProvider struct {
	id       string
	failures int
	failErr  error
	calls    int
	text     string
}

func (p *flakyProvider) ID() string { return p.id }

func (p *flakyProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, p.failErr
	}
	return &Result{Text: p.text, Backend: p.id, Model: "fake"}, nil
}

func TestGatewayRetriesTransientFaults(t *testing.T) {
	p := &flakyProvider{
		id:       "fake",
		failures: 2,
		failErr:  fmt.Errorf("%w: 503", ErrBackendUnavailable),
		text:     "hola",
	}
	g := NewGateway(NewRegistry(p), testutil.TestLoggerSilent(), 3, 1)

	result, err := g.Translate(context.Background(), "", Request{Text: "hello", SourceLocale: "en", TargetLocale: "es"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Text != "hola" {
		t.Errorf("text = %q, want hola", result.Text)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3 (two retries)", p.calls)
	}
}

func TestGatewayExhaustsRetries(t *testing.T) {
	p := &flakyProvider{
		id:       "fake",
		failures: 10,
		failErr:  fmt.Errorf("%w: down", ErrBackendUnavailable),
	}
	g := NewGateway(NewRegistry(p), testutil.TestLoggerSilent(), 3, 1)

	_, err := g.Translate(context.Background(), "fake", Request{Text: "hello", SourceLocale: "en", TargetLocale: "es"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want exactly 3 attempts", p.calls)
	}
}

func TestGatewayDoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"content rejected", fmt.Errorf("%w: policy", ErrContentRejected)},
		{"unsupported pair", fmt.Errorf("%w: xx->yy", ErrUnsupportedLocalePair)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &flakyProvider{id: "fake", failures: 10, failErr: tt.err}
			g := NewGateway(NewRegistry(p), testutil.TestLoggerSilent(), 3, 1)

			_, err := g.Translate(context.Background(), "fake", Request{Text: "x", SourceLocale: "en", TargetLocale: "es"})
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if p.calls != 1 {
				t.Errorf("calls = %d, permanent errors must not retry", p.calls)
			}
		})
	}
}

func TestGatewaySanitizesOutput(t *testing.T) {
	p := &flakyProvider{id: "fake", text: `<p>hola</p><script>alert(1)</script>`}
	g := NewGateway(NewRegistry(p), testutil.TestLoggerSilent(), 1, 1)

	result, err := g.Translate(context.Background(), "", Request{Text: "hello", SourceLocale: "en", TargetLocale: "es"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Text != "<p>hola</p>" {
		t.Errorf("text = %q, want script stripped", result.Text)
	}
}

func TestGatewayUnknownBackend(t *testing.T) {
	g := NewGateway(NewRegistry(&flakyProvider{id: "fake", text: "x"}), testutil.TestLoggerSilent(), 1, 1)

	if _, err := g.Translate(context.Background(), "nope", Request{Text: "x"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
