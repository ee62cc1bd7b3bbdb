// Package service holds the application services that sit between the HTTP
// layer and the card store.
//
// Subpackages:
//   - capture: turns a tokenizer selection into a stored card, enforcing the
//     one-card-per-identity rule.
//   - review: builds the due queue, applies ratings through the scheduler, and
//     drives review sessions.
//
// Error handling follows one pattern across services. Expected conditions
// are sentinel errors checked with errors.Is. Unexpected failures are wrapped
// in a ServiceError that names the operation and keeps the cause reachable
// through Unwrap, so store sentinels such as store.ErrStoreUnavailable still
// match at the API layer.
package service
