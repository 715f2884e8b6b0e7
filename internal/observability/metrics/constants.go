// Package metrics provides constants used across metric definitions.
package metrics

// Outcome label values for provider and service operations.
const (
	// OutcomeSuccess marks a completed operation.
	OutcomeSuccess = "success"
	// OutcomeError marks an operation that returned an error.
	OutcomeError = "error"
	// OutcomeRejected marks a request refused by the circuit breaker.
	OutcomeRejected = "rejected"
)

// Cache tier label values.
const (
	// TierMemory is the in-process response cache.
	TierMemory = "memory"
	// TierDisk is the persistent response cache.
	TierDisk = "disk"
)

// Operation label values used by the finder service.
const (
	// OpRecommend ranks species for a location.
	OpRecommend = "recommend"
	// OpHotspotDetail collects activity for a single hotspot.
	OpHotspotDetail = "hotspot_detail"
	// OpFetch loads observations from the provider.
	OpFetch = "fetch"
	// OpRank runs the scoring engine.
	OpRank = "rank"
)

// Histogram bucket configuration constants.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100B is the starting bucket for 100 byte histograms (100B to ~100MB range).
	BucketStart100B = 100.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketFactor10 is the exponential growth factor of 10 for larger ranges.
	BucketFactor10 = 10

	// BucketCount6 defines 6 exponential buckets.
	BucketCount6 = 6
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)

// Breaker state gauge values.
const (
	BreakerClosed   = 0.0
	BreakerHalfOpen = 1.0
	BreakerOpen     = 2.0
)
