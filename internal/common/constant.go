package common

// RequestIDHeader is the HTTP header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// DefaultProfileID is the profile seeded by the initial migration.
const DefaultProfileID int64 = 1
