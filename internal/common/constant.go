package common

// APIKeyHeaderName carries the content-index API key on student requests.
const APIKeyHeaderName = "x-api-key"

// AuthHeaderName carries the teacher bearer token.
const AuthHeaderName = "Authorization"
