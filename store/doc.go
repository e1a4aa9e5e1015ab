// Package store provides authcore.CredentialStore adapters.
//
// [Memory] keeps everything in process and backs tests and the development
// server. [Redis] persists principals and credentials with go-redis:
//
//	<prefix>p:<id>     principal JSON
//	<prefix>e:<email>  principal id (email lowercased, SETNX for uniqueness)
//	<prefix>c:<id>     credential hash {salt, passwordHash}
package store
