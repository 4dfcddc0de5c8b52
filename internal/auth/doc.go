// Package auth implements authentication and authorization for guardpost.
//
// Authentication is local: users are looked up by email and verified
// against a bcrypt password hash. A successful login produces a signed
// JWT whose claims carry the authenticated principal: user id, email,
// role names and the flattened permission set (the union of permission
// names across all of the user's roles, duplicates removed).
//
// Authorization is evaluated per request by two guards. Each guard is a
// pure predicate over (required set, principal): a request is allowed if
// no requirement is declared, or if at least one of the principal's
// roles/permissions matches a required name. Matching is a case-sensitive
// exact string comparison with no wildcard or hierarchy semantics.
//
// The claims are a point-in-time snapshot taken at login. Revoking a role
// or permission does not affect tokens that are already issued; it takes
// effect when the token expires. The auth middleware does re-confirm on
// every request that the token subject still exists and is active.
package auth
