package domain

// Status is the outcome carried by a Response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Response is the envelope sent to a client after the handshake.
// UUID echoes the client's correlation id.
type Response struct {
	UUID    string `json:"uuid"`
	Status  Status `json:"status"`
	Content any    `json:"content"`
}

// Success builds a success envelope.
func Success(uuid string, content any) Response {
	return Response{UUID: uuid, Status: StatusSuccess, Content: content}
}

// Failure builds a failure envelope whose content is the reason text.
func Failure(uuid, reason string) Response {
	return Response{UUID: uuid, Status: StatusFailure, Content: reason}
}
