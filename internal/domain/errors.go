package domain

import "fmt"

// ErrorKind classifies every failure the pipeline can surface.
type ErrorKind string

const (
	// KindIdentifier: required identifier missing or unresolvable.
	KindIdentifier ErrorKind = "identifier"
	// KindTransport: non-2xx status, network failure, timeout, or a
	// body that could not be decoded.
	KindTransport ErrorKind = "transport"
	// KindEmpty: upstream reachable but returned zero usable records.
	KindEmpty ErrorKind = "empty"
	// KindTotalAggregation: every region of a multi-region request
	// failed or came back empty.
	KindTotalAggregation ErrorKind = "total_aggregation"
)

// Error is the distinguished failure variant returned in place of an
// AppInfo or review collection. Adapter calls resolve to exactly one of
// a success value or an *Error; nothing in the pipeline panics through.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	AppID      string    `json:"app_id"`
	Message    string    `json:"error"`
	Suggestion string    `json:"suggestion,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (app_id=%s)", e.Kind, e.Message, e.AppID)
}

// Errf builds an *Error with a formatted message.
func Errf(kind ErrorKind, appID, format string, args ...any) *Error {
	return &Error{Kind: kind, AppID: appID, Message: fmt.Sprintf(format, args...)}
}
