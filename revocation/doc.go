// Package revocation provides token denylists keyed by the token's jti claim.
//
// Entries live only until the revoked token's own expiry; after that the token
// is rejected as expired anyway. [Redis] shares state across processes;
// [Memory] is for single-process deployments and tests.
package revocation
