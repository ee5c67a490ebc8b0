package domain

// AuthMethod identifies how the current session was authenticated
type AuthMethod string

const (
	// AuthMethodNone indicates no authentication has happened yet
	AuthMethodNone AuthMethod = "none"

	// AuthMethodOAuth indicates an interactive OAuth consent flow
	AuthMethodOAuth AuthMethod = "oauth"

	// AuthMethodAPIKey indicates a developer API key
	AuthMethodAPIKey AuthMethod = "apikey"

	// AuthMethodDemo indicates the credential-less demo stub
	AuthMethodDemo AuthMethod = "demo"
)

// AccessLevel is the capability granted by a credential
type AccessLevel string

const (
	// AccessReadOnly permits status queries only
	AccessReadOnly AccessLevel = "read-only"

	// AccessReadWrite additionally permits uploads
	AccessReadWrite AccessLevel = "read-write"
)

// CanUpload reports whether the access level permits uploads.
func (a AccessLevel) CanUpload() bool {
	return a == AccessReadWrite
}
