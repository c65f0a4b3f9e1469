package dogewifi

import "context"

// A Change is sent to websocket clients for every step a connection
// attempt takes. ID is the attempt ID handed out when the attempt was
// requested, or "internal" for changes nobody asked for.
type Change struct {
	ID     string `json:"id"`
	Error  string `json:"error"`
	Type   string `json:"type"`
	Update any    `json:"update"`
}

type StateUpdate struct {
	Interface string `json:"interface,omitempty"`
	State     string `json:"state"`
}

type ConnectResult struct {
	Interface string `json:"interface"`
	ESSID     string `json:"essid"`
	Connected bool   `json:"connected"`
}

type attemptKey struct{}

// WithAttemptID tags ctx so state changes can be traced to a request.
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptKey{}, id)
}

func AttemptID(ctx context.Context) string {
	id, _ := ctx.Value(attemptKey{}).(string)
	return id
}
