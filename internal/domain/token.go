package domain

import "time"

// RefreshTokenRecord is the durable proof that a refresh token was issued.
// A refresh token presented by a client is valid only while a record with its
// embedded id exists, is unexpired, and belongs to the claimed subject.
type RefreshTokenRecord struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenPair carries the two credentials handed to the transport layer as
// opaque strings; cookie vs. header encoding is the transport's concern.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
