package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/doceencanto/storefront-go/internal/infra/resilience"
)

func TestFallback_PrimarySucceeds(t *testing.T) {
	secondaryCalls := 0

	got, fellBack, err := resilience.Fallback(context.Background(),
		func(ctx context.Context) (string, error) { return "primary", nil },
		func(ctx context.Context) (string, error) {
			secondaryCalls++
			return "secondary", nil
		},
	)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != "primary" {
		t.Errorf("expected primary result, got %q", got)
	}
	if fellBack {
		t.Error("fallback should not be reported when primary succeeds")
	}
	if secondaryCalls != 0 {
		t.Errorf("secondary should not run, ran %d times", secondaryCalls)
	}
}

func TestFallback_SecondaryServesOnPrimaryFailure(t *testing.T) {
	secondaryCalls := 0

	got, fellBack, err := resilience.Fallback(context.Background(),
		func(ctx context.Context) (string, error) { return "", errors.New("rest tier down") },
		func(ctx context.Context) (string, error) {
			secondaryCalls++
			return "from store", nil
		},
	)

	if err != nil {
		t.Fatalf("primary error must not surface when secondary succeeds, got %v", err)
	}
	if got != "from store" {
		t.Errorf("expected secondary result, got %q", got)
	}
	if !fellBack {
		t.Error("expected fallback to be reported")
	}
	if secondaryCalls != 1 {
		t.Errorf("secondary must run exactly once, ran %d times", secondaryCalls)
	}
}

func TestFallback_BothFail(t *testing.T) {
	primaryErr := errors.New("primary boom")
	secondaryErr := errors.New("secondary boom")

	_, fellBack, err := resilience.Fallback(context.Background(),
		func(ctx context.Context) (int, error) { return 0, primaryErr },
		func(ctx context.Context) (int, error) { return 0, secondaryErr },
	)

	if err == nil {
		t.Fatal("expected error when both paths fail")
	}
	if !fellBack {
		t.Error("expected fallback to be reported")
	}
	if !errors.Is(err, secondaryErr) {
		t.Errorf("caller should observe the secondary's error, got %v", err)
	}
}

func TestFallback_CancelledContextSkipsSecondary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	secondaryCalls := 0
	_, _, err := resilience.Fallback(ctx,
		func(ctx context.Context) (int, error) {
			cancel()
			return 0, errors.New("primary failed")
		},
		func(ctx context.Context) (int, error) {
			secondaryCalls++
			return 1, nil
		},
	)

	if err == nil {
		t.Fatal("expected context error")
	}
	if secondaryCalls != 0 {
		t.Errorf("secondary must not run after cancellation, ran %d times", secondaryCalls)
	}
}
