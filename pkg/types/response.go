package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the error payload shared by every route.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
