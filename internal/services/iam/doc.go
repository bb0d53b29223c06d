// Package iam authenticates requests and users for authgate.
//
// It provides:
//
//   - Per-request classification via pluggable authenticators (bearer token, session cookie)
//   - Authority resolution from the identity store (users, roles, user_roles)
//   - Login for both protocols and session logout
//
// Architecture:
//
//   - Authenticator interface: one strategy per protocol
//   - Resolver: username → auth.Principal, recomputed on every call
//   - Service interface: facade used by middleware, handlers and the CLI
//
// Request Flow:
//
//	Request → Authn middleware → Service.AuthenticateRequest()
//	            ├─ bearer header with prefix? → BearerAuthenticator → Authenticated | Anonymous
//	            └─ otherwise                 → SessionAuthenticator → Authenticated | Anonymous
//	       ↓
//	   Authz middleware (route table) → handler
//
// Classification never fails a request. A forged, expired or stale credential
// and an unreachable store all degrade to auth.Anonymous; the route table then
// decides whether anonymous access is acceptable.
package iam
