package retry

import (
	"testing"
	"time"

	"github.com/confpress/confpress/internal/config"
)

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 2*time.Second, 30*time.Second, 3)
	for i := 1; i <= 3; i++ {
		if got := fixed.Delay(i); got != 2*time.Second {
			t.Fatalf("fixed Delay(%d) = %v, want 2s", i, got)
		}
	}

	linear := NewPolicy(config.RetryBackoffLinear, time.Second, 30*time.Second, 3)
	if got := linear.Delay(3); got != 3*time.Second {
		t.Fatalf("linear Delay(3) = %v, want 3s", got)
	}

	exp := NewPolicy(config.RetryBackoffExponential, time.Second, 30*time.Second, 6)
	if got := exp.Delay(3); got != 4*time.Second {
		t.Fatalf("exponential Delay(3) = %v, want 4s", got)
	}
	if got := exp.Delay(10); got != 30*time.Second {
		t.Fatalf("exponential Delay(10) = %v, want cap 30s", got)
	}
}

func TestDelayZeroForNoRetry(t *testing.T) {
	if got := DefaultPolicy().Delay(0); got != 0 {
		t.Fatalf("Delay(0) = %v, want 0", got)
	}
}

func TestNewPolicyFallsBackToDefaults(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	def := DefaultPolicy()
	if p != def {
		t.Fatalf("NewPolicy with invalid inputs = %+v, want defaults %+v", p, def)
	}
}

func TestNewPolicyClampsInitialToMax(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Minute, 10*time.Second, 1)
	if p.Initial != 10*time.Second {
		t.Fatalf("Initial = %v, want clamp to 10s", p.Initial)
	}
}

func TestFromBuildConfig(t *testing.T) {
	p := FromBuildConfig(config.BuildConfig{
		MaxRetries:        5,
		RetryBackoff:      config.RetryBackoffExponential,
		RetryInitialDelay: "500ms",
		RetryMaxDelay:     "10s",
	})
	if p.MaxRetries != 5 || p.Mode != config.RetryBackoffExponential ||
		p.Initial != 500*time.Millisecond || p.Max != 10*time.Second {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
