package domain

// AppStatusOK and AppStatusInvalidToken are the application status codes
// the upstream API puts in every response envelope.
const (
	AppStatusOK           = 0
	AppStatusInvalidToken = 108
)

// Envelope is the upstream API response shape.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Result is the typed outcome of an endpoint call: the server message plus
// the decoded data.
type Result[T any] struct {
	Message string
	Data    T
}
