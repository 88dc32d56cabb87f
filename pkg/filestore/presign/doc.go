// Package presign provides HMAC-based signing for presigned upload URLs
// against self-hosted store endpoints.
//
// A Signer implements filestore.UploadSigner: it turns an object key, a
// Content-Type and a TTL into a time-limited URL the client PUTs to
// directly. The signature covers METHOD|PATH|CONTENT_TYPE|NONCE|EXPIRES,
// so a URL cannot be replayed with a different method, key, content type
// or window, and two URLs for the same key are never interchangeable.
//
// Server-side, wrap the upload endpoint in ValidateMiddleware; the
// middleware re-derives the signature from the incoming request (its
// Content-Type header included) and rejects expirations and mismatches
// before the handler runs:
//
//	signer := presign.New(presign.WithSecretKey(secret))
//	mux.Handle("/upload/", presign.ValidateMiddleware(signer, uploadHandler))
//
// Client-side, Client.Upload performs the PUT with the granted
// Content-Type and a bounded retry for transient server failures.
//
// Use strong secret keys (minimum 32 bytes from crypto/rand) and keep
// expiry windows short; 15 minutes to an hour covers most uploads.
package presign
