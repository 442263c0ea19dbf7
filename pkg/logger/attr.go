package logger

import "log/slog"

// Error records err under the key "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Tenant(id string) slog.Attr {
	return slog.String("tenant", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Transition records a state change as "from -> to".
func Transition(from, to string) slog.Attr {
	return slog.String("transition", from+" -> "+to)
}

func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}
