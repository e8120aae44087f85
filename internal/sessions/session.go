package sessions

import "time"

// Session is an admin login. ID is the access token's jti.
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	Sub       string    `bson:"sub" json:"sub"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
