// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrInvalidSignature indicates the X-Hub-Signature-256 header is missing or
// does not match the HMAC of the request body.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrInvalidToken indicates the URL token is missing or does not match.
var ErrInvalidToken = errors.New("invalid url token")

// ErrMalformedPayload indicates the delivery body could not be decoded or is
// missing the repository identification.
var ErrMalformedPayload = errors.New("malformed webhook payload")
