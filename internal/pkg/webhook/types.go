package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openbankingng/monobridge/app/models"
)

// ErrMalformedPayload is returned when a verified body is not a JSON object
// of the expected envelope shape.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Envelope is the parsed form of a Mono webhook body. EventType is kept
// verbatim; unrecognized types flow through storage untouched. Data stays raw
// so re-serialization can never alter what gets persisted.
type Envelope struct {
	EventType string
	EventID   string
	Data      json.RawMessage
}

type rawEnvelope struct {
	Event string          `json:"event"`
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
}

// Mono historically delivered dotted long-form event names; newer payloads
// use the short form. Both map to the same stored type.
var legacyEventTypes = map[string]string{
	"mono.events.account_connected": "account.connected",
	"mono.events.account_updated":   "account.updated",
	"mono.events.account_unlinked":  "account.unlinked",
	"mono.events.job_completed":     "job.completed",
	"mono.events.job_failed":        "job.failed",
}

// ParseEnvelope decodes a verified raw body. Call only after signature
// verification has passed.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedPayload
	}

	eventType := strings.TrimSpace(env.Event)
	if eventType == "" {
		eventType = strings.TrimSpace(env.Type)
	}
	if eventType == "" {
		return nil, ErrMalformedPayload
	}
	if canonical, ok := legacyEventTypes[eventType]; ok {
		eventType = canonical
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	return &Envelope{
		EventType: eventType,
		EventID:   strings.TrimSpace(env.ID),
		Data:      data,
	}, nil
}

// DeriveEventID picks the sender-supplied identifier when one exists and
// otherwise hashes the raw body, so a verbatim redelivery of an id-less event
// still dedupes to the same record.
func DeriveEventID(env *Envelope, raw []byte) string {
	if env.EventID != "" {
		return env.EventID
	}
	if id := dataID(env.Data); id != "" {
		return id
	}
	sum := sha256.Sum256(raw)
	return "evt_" + hex.EncodeToString(sum[:16])
}

func dataID(data json.RawMessage) string {
	var d struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return ""
	}
	return strings.TrimSpace(d.ID)
}

// AccountConnectedData is the typed projection of account.connected payloads.
type AccountConnectedData struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// AccountUpdatedData is the typed projection of account.updated payloads.
type AccountUpdatedData struct {
	Account struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Institution struct {
			Name     string `json:"name"`
			BankCode string `json:"bankCode"`
		} `json:"institution"`
	} `json:"account"`
	Meta struct {
		DataStatus string `json:"data_status"`
	} `json:"meta"`
}

// AccountUnlinkedData is the typed projection of account.unlinked payloads.
type AccountUnlinkedData struct {
	Account struct {
		ID string `json:"id"`
	} `json:"account"`
}

// JobData is the typed projection of job.completed / job.failed payloads.
type JobData struct {
	Account string `json:"account"`
	Status  string `json:"status"`
}

func (e *Envelope) AccountConnected() (*AccountConnectedData, error) {
	var d AccountConnectedData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, ErrMalformedPayload
	}
	return &d, nil
}

func (e *Envelope) AccountUpdated() (*AccountUpdatedData, error) {
	var d AccountUpdatedData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, ErrMalformedPayload
	}
	return &d, nil
}

func (e *Envelope) AccountUnlinked() (*AccountUnlinkedData, error) {
	var d AccountUnlinkedData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, ErrMalformedPayload
	}
	return &d, nil
}

func (e *Envelope) Job() (*JobData, error) {
	var d JobData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, ErrMalformedPayload
	}
	return &d, nil
}

// AccountID extracts the account reference carried by known event types so it
// can be indexed alongside the opaque payload. Unknown types return "".
func (e *Envelope) AccountID() string {
	switch e.EventType {
	case models.EventAccountConnected:
		if d, err := e.AccountConnected(); err == nil {
			return d.ID
		}
	case models.EventAccountUpdated:
		if d, err := e.AccountUpdated(); err == nil {
			return d.Account.ID
		}
	case models.EventAccountUnlinked:
		if d, err := e.AccountUnlinked(); err == nil {
			return d.Account.ID
		}
	case models.EventJobCompleted, models.EventJobFailed:
		if d, err := e.Job(); err == nil {
			return d.Account
		}
	}
	return ""
}
