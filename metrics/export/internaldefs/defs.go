package internaldefs

import (
	"github.com/farmlink/authcore"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful self-registrations."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: authcore.MetricRegisterRejected, Name: "authcore_register_rejected_total", Help: "Registrations rejected for role, input or password policy."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Logins rejected with a hash mismatch, unknown emails included."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Logins refused by the failed-attempt throttle."},
	{ID: authcore.MetricPasswordUpgraded, Name: "authcore_password_upgraded_total", Help: "Credentials re-hashed to the configured algorithm on login."},
	{ID: authcore.MetricPasswordChangeSuccess, Name: "authcore_password_change_success_total", Help: "Successful password changes."},
	{ID: authcore.MetricPasswordChangeInvalidOld, Name: "authcore_password_change_invalid_old_total", Help: "Password changes rejected for a wrong current password."},
	{ID: authcore.MetricTokenMinted, Name: "authcore_token_minted_total", Help: "Access tokens signed."},
	{ID: authcore.MetricRefreshReissued, Name: "authcore_refresh_reissued_total", Help: "Refresh calls that issued a new token."},
	{ID: authcore.MetricRefreshUnchanged, Name: "authcore_refresh_unchanged_total", Help: "Refresh calls outside the window that returned the token unchanged."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Refresh calls with an invalid, expired or revoked token."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logouts."},
	{ID: authcore.MetricAuthorizeSuccess, Name: "authcore_authorize_success_total", Help: "Requests admitted by the guard."},
	{ID: authcore.MetricDeniedMalformed, Name: "authcore_denied_malformed_total", Help: "Guard denials: malformed token."},
	{ID: authcore.MetricDeniedBadSignature, Name: "authcore_denied_bad_signature_total", Help: "Guard denials: signature mismatch."},
	{ID: authcore.MetricDeniedExpired, Name: "authcore_denied_expired_total", Help: "Guard denials: expired token."},
	{ID: authcore.MetricDeniedRevoked, Name: "authcore_denied_revoked_total", Help: "Guard denials: revoked token or denylist unavailable."},
	{ID: authcore.MetricDeniedNoCredential, Name: "authcore_denied_no_credential_total", Help: "Guard denials: no bearer token."},
	{ID: authcore.MetricDeniedWrongRole, Name: "authcore_denied_wrong_role_total", Help: "Guard denials: role requirement not met."},
	{ID: authcore.MetricDeniedNotOwner, Name: "authcore_denied_not_owner_total", Help: "Guard denials: principal does not own the resource."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_authorize_latency_seconds", Help: "Token validation and authorization latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "authcore_audit_dropped_total"

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// publish buckets as separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [authcore.MetricHistogramBuckets]uint64 {
	var out [authcore.MetricHistogramBuckets]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [authcore.MetricHistogramBuckets]uint64) [authcore.MetricHistogramBuckets]uint64 {
	var out [authcore.MetricHistogramBuckets]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
