package domain

import (
	"encoding/json"
	"time"
)

// SessionRecord is one recorder capture as accepted from a client.
// Events and Timestamp are kept as raw JSON and never interpreted.
type SessionRecord struct {
	SessionID   string
	Events      []json.RawMessage
	PageURL     string
	Host        string
	Timestamp   json.RawMessage
	DomainToken string
}

// TenantEntry is one row of the tenant registry.
type TenantEntry struct {
	TenantID string
	Bucket   string
	Token    string
}

// StoredSession is the JSON body written to object storage. Host is always
// the verified tenant id and the domain token is never stored.
type StoredSession struct {
	SessionID string            `json:"sessionId"`
	Events    []json.RawMessage `json:"events"`
	PageURL   string            `json:"pageUrl"`
	Host      string            `json:"host"`
	Timestamp json.RawMessage   `json:"timestamp,omitempty"`
}

// NewStoredSession builds the persisted body for rec owned by tenantID.
func NewStoredSession(rec *SessionRecord, tenantID string) StoredSession {
	return StoredSession{
		SessionID: rec.SessionID,
		Events:    rec.Events,
		PageURL:   rec.PageURL,
		Host:      tenantID,
		Timestamp: rec.Timestamp,
	}
}

// StoredObject is the durable artifact: written once, never moved or updated.
type StoredObject struct {
	Bucket string
	Key    string
	Body   []byte
}

// AccessGrant is a signed, expiring read link for one stored object.
type AccessGrant struct {
	URL       string
	ExpiresAt time.Time
}

// SessionStored is announced to downstream consumers after a grant is issued.
type SessionStored struct {
	TenantID  string    `json:"tenant_id"`
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	SessionID string    `json:"session_id"`
	Size      int       `json:"size"`
	StoredAt  time.Time `json:"stored_at"`
}
