package paypal

import (
	"encoding/json"
	"fmt"
)

type FailureKind string

const (
	FailureAuth     FailureKind = "auth"
	FailureUpstream FailureKind = "upstream"
	FailureParse    FailureKind = "parse"
)

// Failure is every unsuccessful outcome of a PayPal call.
type Failure struct {
	Kind   FailureKind
	Op     string
	Status int
	Raw    []byte
	Err    error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	msg := fmt.Sprintf("paypal %s: %s failure", f.Op, f.Kind)
	if f.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.Status)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Detail returns the provider body for diagnostics: decoded JSON when the body
// is JSON, the raw text otherwise, the transport error when there is no body.
func (f *Failure) Detail() any {
	if f == nil {
		return nil
	}
	if len(f.Raw) > 0 {
		if json.Valid(f.Raw) {
			return json.RawMessage(f.Raw)
		}
		return string(f.Raw)
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return nil
}

func authFailure(op string, status int, raw []byte, err error) *Failure {
	return &Failure{Kind: FailureAuth, Op: op, Status: status, Raw: redactBody(raw), Err: err}
}

func upstreamFailure(op string, status int, raw []byte, err error) *Failure {
	return &Failure{Kind: FailureUpstream, Op: op, Status: status, Raw: raw, Err: err}
}

func parseFailure(op string, status int, raw []byte, err error) *Failure {
	return &Failure{Kind: FailureParse, Op: op, Status: status, Raw: raw, Err: err}
}
