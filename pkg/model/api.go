package model

// Wire types for the webhook backend. Field names follow its JSON.

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the /login reply: the profile and its bearer token.
type LoginResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

// FilesResponse is the GET /files reply, newest file first.
type FilesResponse struct {
	Files []FileRecord `json:"files"`
}

// UploadResponse is the POST /upload reply.
type UploadResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileUrl"`
	FileID  string `json:"fileId"`
}

// ErrorResponse is the body the webhook stub sends with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
