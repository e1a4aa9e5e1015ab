package authcore

import (
	internalmetrics "github.com/farmlink/authcore/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricRegisterSuccess          = internalmetrics.MetricRegisterSuccess
	MetricRegisterDuplicate        = internalmetrics.MetricRegisterDuplicate
	MetricRegisterRejected         = internalmetrics.MetricRegisterRejected
	MetricLoginSuccess             = internalmetrics.MetricLoginSuccess
	MetricLoginFailure             = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited         = internalmetrics.MetricLoginRateLimited
	MetricPasswordUpgraded         = internalmetrics.MetricPasswordUpgraded
	MetricPasswordChangeSuccess    = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	MetricTokenMinted              = internalmetrics.MetricTokenMinted
	MetricRefreshReissued          = internalmetrics.MetricRefreshReissued
	MetricRefreshUnchanged         = internalmetrics.MetricRefreshUnchanged
	MetricRefreshFailure           = internalmetrics.MetricRefreshFailure
	MetricLogout                   = internalmetrics.MetricLogout
	MetricAuthorizeSuccess         = internalmetrics.MetricAuthorizeSuccess
	MetricDeniedMalformed          = internalmetrics.MetricDeniedMalformed
	MetricDeniedBadSignature       = internalmetrics.MetricDeniedBadSignature
	MetricDeniedExpired            = internalmetrics.MetricDeniedExpired
	MetricDeniedRevoked            = internalmetrics.MetricDeniedRevoked
	MetricDeniedNoCredential       = internalmetrics.MetricDeniedNoCredential
	MetricDeniedWrongRole          = internalmetrics.MetricDeniedWrongRole
	MetricDeniedNotOwner           = internalmetrics.MetricDeniedNotOwner
	MetricValidateLatency          = internalmetrics.MetricValidateLatency
)

// MetricHistogramBuckets is the number of latency buckets in a snapshot.
const MetricHistogramBuckets = internalmetrics.HistBucketCount

// Metrics holds lock-free counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}

var deniedMetric = map[Reason]MetricID{
	ReasonMalformed:    MetricDeniedMalformed,
	ReasonBadSignature: MetricDeniedBadSignature,
	ReasonExpired:      MetricDeniedExpired,
	ReasonRevoked:      MetricDeniedRevoked,
	ReasonNoCredential: MetricDeniedNoCredential,
	ReasonWrongRole:    MetricDeniedWrongRole,
	ReasonNotOwner:     MetricDeniedNotOwner,
}
