package dynamo

// DynamoDB attribute names used in update expressions across repos.
const (
	fieldUpdatedAt         = "updated_at"
	fieldPasswordHash      = "password_hash"
	fieldGoogleSub         = "google_sub"
	fieldProfilePictureKey = "profile_picture_key"
	fieldActive            = "active"
	fieldBalance           = "balance"
)
