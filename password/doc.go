// Package password implements salted password hashing and verification behind a
// single Hasher boundary.
//
// # Algorithms
//
// Two algorithms share the boundary:
//
//   - sha256: single-pass hex(sha256(password ‖ salt)). Kept for credentials
//     written by earlier deployments.
//   - argon2id: memory-hard key derivation, PHC-encoded:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Both take the caller-supplied printable salt produced by [GenerateSalt], so the
// stored {salt, passwordHash} pair keeps the same shape regardless of algorithm.
// [Verify] dispatches on the digest format, which lets legacy and upgraded
// credentials coexist; [Hasher.NeedsUpgrade] reports when a stored digest should be
// re-hashed on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length, role
// rules) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials.
//   - Import any other authcore package.
//   - Log plaintext passwords or digests.
package password
