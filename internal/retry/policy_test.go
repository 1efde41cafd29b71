package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, 0, NoRetry().MaxRetries)
}

func TestNewPolicy_ClampsInitial(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)
}

func TestNewPolicy_UnknownModeFallsBack(t *testing.T) {
	p := NewPolicy("weird", 250*time.Millisecond, 500*time.Millisecond, 1)
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
}

func TestFromCheckout(t *testing.T) {
	p := FromCheckout(config.CheckoutConfig{
		MaxRetries:   4,
		RetryBackoff: config.RetryBackoffExponential,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     time.Second,
	})
	assert.Equal(t, Policy{Mode: config.RetryBackoffExponential, Initial: 10 * time.Millisecond, Max: time.Second, MaxRetries: 4}, p)
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed first", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), 1, 100 * ms},
		{"fixed third", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{"linear second", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{"linear capped", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{"exponential second", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), 2, 100 * ms},
		{"exponential capped", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), 3, 160 * ms},
		{"exponential huge", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 99), 80, 160 * ms},
		{"zero attempt", NewPolicy(config.RetryBackoffLinear, 10*ms, 20*ms, 1), 0, 0},
		{"negative attempt", NewPolicy(config.RetryBackoffLinear, 10*ms, 20*ms, 1), -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 2 * time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, Policy{Initial: time.Second, Max: 2 * time.Second}.Validate())
}

var errFlaky = errors.New("flaky")

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retries []int
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, nil, func(attempt int, _ time.Duration, err error) {
		retries = append(retries, attempt)
		assert.ErrorIs(t, err, errFlaky)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_Exhausted(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	}, nil, nil)
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 5)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	}, func(error) bool { return false }, nil)
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errFlaky
	}, nil, func(int, time.Duration, error) { cancel() })
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}
