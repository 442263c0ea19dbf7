package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// TimeLayout is the backend's timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Gateway is the persistence boundary used by the session core.
type Gateway interface {
	// ListActive returns the tenants that had a ready session when last seen.
	ListActive(ctx context.Context) ([]string, error)
	AddRecord(ctx context.Context, tenant string, lastConnected time.Time) error
	RemoveRecord(ctx context.Context, tenant string) error
	Authenticate(ctx context.Context, email, password string) (*UserProfile, error)
}

// Record is a persisted active-session entry.
type Record struct {
	Tenant        string
	LastConnected time.Time
}

// UserProfile is the account returned by a successful login.
type UserProfile struct {
	ID    FlexString `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"nombres,omitempty"`
	Phone string     `json:"celular,omitempty"`
}

// FlexString decodes from either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Int returns the value as an integer when it is numeric.
func (f FlexString) Int() (int64, error) {
	return strconv.ParseInt(string(f), 10, 64)
}
