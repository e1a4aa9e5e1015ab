// Package flows holds the authorize decision order as a pure function.
//
// [RunAuthorize] takes a typed dependency struct of funcs and returns a
// classified [AuthorizeResult]. It has no side effects beyond those funcs, so
// the order (token, revocation, role, ownership) is tested with stubs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (import cycle).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
