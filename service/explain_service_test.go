package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loan-eligibility/domain"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestExplain_UsesGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "Strong credit history and a low ratio."}
	service := NewExplainService(gen, nil)

	app := baseApplication()
	features, err := Encode(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := service.Explain(context.Background(), app, features, domain.Approved)
	if got != gen.reply {
		t.Fatalf("expected generator reply, got %q", got)
	}
	if !strings.Contains(gen.prompt, "approved") || !strings.Contains(gen.prompt, "0.0200") {
		t.Errorf("prompt is missing the outcome or ratio:\n%s", gen.prompt)
	}
}

func TestExplain_FallbackOnError(t *testing.T) {
	service := NewExplainService(&fakeGenerator{err: errors.New("quota")}, nil)

	features := domain.FeatureRecord{CreditHistory: 0, TotalIncome: 1000, DebtIncomeRatio: 0.5}
	got := service.Explain(context.Background(), baseApplication(), features, domain.Rejected)

	if !strings.HasPrefix(got, "The application was flagged as high risk") {
		t.Errorf("unexpected fallback %q", got)
	}
	if !strings.Contains(got, "does not meet") || !strings.Contains(got, "large relative to income") {
		t.Errorf("fallback is missing reasons: %q", got)
	}
}

func TestExplain_FallbackWithoutGenerator(t *testing.T) {
	service := NewExplainService(nil, nil)

	features := domain.FeatureRecord{CreditHistory: 1}
	got := service.Explain(context.Background(), baseApplication(), features, domain.Approved)

	if !strings.Contains(got, "approved") || !strings.Contains(got, "no income was declared") {
		t.Errorf("unexpected fallback %q", got)
	}
}
