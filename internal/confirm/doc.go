// Package confirm issues and verifies confirmation tokens for wallet transfers.
//
// A token has the form
//
//	<unix seconds>.<payload hash>.<signature>
//
// where the payload hash is HMAC-SHA256 of the transfer's canonical JSON keyed
// with the fixed PublicSalt, and the signature is HMAC-SHA256 of
// "<unix>.<payload hash>" keyed with the server secret. Both are lowercase hex.
//
// Verify checks, in order: the token shape, its age against the TTL, that the
// embedded hash matches the submitted transfer, and finally the signature. A
// token approves exactly one set of transfer parameters; changing any field,
// including the memo, invalidates it.
package confirm
