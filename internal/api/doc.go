// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between the reader and
// review clients and the capture, review and lexicon services, translating
// HTTP concerns to business operations.
package api
