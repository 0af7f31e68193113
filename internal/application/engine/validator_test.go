package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

func TestValidateAcceptsCanonicalSignal(t *testing.T) {
	sig := eurusdSignal("sig-1")

	rej := Validate(sig, testParams(), testCatalog(), time.Now())

	assert.Nil(t, rej)
	assert.InDelta(t, 2.0, sig.RiskReward(), 1e-9)
}

func TestValidateRejections(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name   string
		mutate func(*domain.Signal)
		reason domain.RejectReason
	}{
		{
			name:   "confidence below threshold",
			mutate: func(s *domain.Signal) { s.Confidence = 0.69 },
			reason: domain.RejectLowConfidence,
		},
		{
			name:   "confidence exactly at threshold passes elsewhere",
			mutate: func(s *domain.Signal) { s.Confidence = 0.0 },
			reason: domain.RejectLowConfidence,
		},
		{
			name:   "unknown symbol",
			mutate: func(s *domain.Signal) { s.Symbol = "XAUUSD" },
			reason: domain.RejectUnknownSymbol,
		},
		{
			name:   "long stop above entry",
			mutate: func(s *domain.Signal) { s.StopPrice = 1.1050 },
			reason: domain.RejectBadGeometry,
		},
		{
			name:   "long target below entry",
			mutate: func(s *domain.Signal) { s.TargetPrice = 1.0990 },
			reason: domain.RejectBadGeometry,
		},
		{
			name:   "missing stop",
			mutate: func(s *domain.Signal) { s.StopPrice = 0 },
			reason: domain.RejectBadGeometry,
		},
		{
			name:   "missing target",
			mutate: func(s *domain.Signal) { s.TargetPrice = 0 },
			reason: domain.RejectBadGeometry,
		},
		{
			name:   "unknown direction",
			mutate: func(s *domain.Signal) { s.Direction = "SIDEWAYS" },
			reason: domain.RejectBadGeometry,
		},
		{
			name:   "risk-reward below minimum",
			mutate: func(s *domain.Signal) { s.TargetPrice = 1.1050 }, // RR = 1.0
			reason: domain.RejectInsufficientRR,
		},
		{
			name:   "expired signal",
			mutate: func(s *domain.Signal) { s.ExpiresAt = now.Add(-time.Minute) },
			reason: domain.RejectExpired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := eurusdSignal("sig-1")
			tc.mutate(&sig)

			rej := Validate(sig, testParams(), testCatalog(), now)

			require.NotNil(t, rej)
			assert.Equal(t, tc.reason, rej.Reason)
			assert.NotEmpty(t, rej.Details)
		})
	}
}

func TestValidateShortGeometry(t *testing.T) {
	sig := domain.Signal{
		Symbol:      "EURUSD",
		Direction:   domain.DirectionShort,
		Confidence:  0.9,
		EntryPrice:  1.1000,
		StopPrice:   1.1050,
		TargetPrice: 1.0900,
		GeneratedAt: time.Now().UTC(),
		SourceID:    "sig-short",
	}

	assert.Nil(t, Validate(sig, testParams(), testCatalog(), time.Now()))

	// short stop must sit above entry
	sig.StopPrice = 1.0990
	rej := Validate(sig, testParams(), testCatalog(), time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectBadGeometry, rej.Reason)
}

func TestValidateNeverExpiresWhenZero(t *testing.T) {
	sig := eurusdSignal("sig-1")
	sig.ExpiresAt = time.Time{}

	rej := Validate(sig, testParams(), testCatalog(), time.Now().Add(365*24*time.Hour))

	assert.Nil(t, rej)
}

func TestValidateIsDeterministic(t *testing.T) {
	sig := eurusdSignal("sig-1")
	sig.Confidence = 0.5
	now := time.Now()

	first := Validate(sig, testParams(), testCatalog(), now)
	second := Validate(sig, testParams(), testCatalog(), now)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Reason, second.Reason)
}
