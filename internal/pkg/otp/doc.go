// Package otp generates time-based one-time passwords (RFC 6238 over RFC 4226).
//
// Inputs arrive as Params, a permissive struct mirroring request bodies and
// stored rows. Normalize is the single step that applies defaults and decodes
// the secret; everything downstream works on the resolved Config. Generation
// is pure and safe for concurrent use.
//
// Provisioner covers the authenticator-app side: new secrets and otpauth URIs.
package otp
