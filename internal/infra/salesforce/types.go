package salesforce

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ─── describe payloads ───────────────────────────────────────────────────────

// GlobalDescribe is the org-wide schema description returned by
// GET /services/data/vXX.X/sobjects/.
type GlobalDescribe struct {
	Encoding     string        `json:"encoding"`
	MaxBatchSize int           `json:"maxBatchSize"`
	Sobjects     []SObjectMeta `json:"sobjects"`
}

// SObjectMeta is one object's entry in the global describe.
type SObjectMeta struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Custom     bool   `json:"custom"`
	Queryable  bool   `json:"queryable"`
	Searchable bool   `json:"searchable"`
	Createable bool   `json:"createable"`
	Updateable bool   `json:"updateable"`
	Deletable  bool   `json:"deletable"`
}

// ObjectDescribe is the per-object describe payload.
type ObjectDescribe struct {
	Name   string      `json:"name"`
	Label  string      `json:"label"`
	Custom bool        `json:"custom"`
	Fields []FieldMeta `json:"fields"`
}

// FieldMeta is one field of an object describe. Only the attributes the
// façade projects are declared; the remote payload carries many more.
type FieldMeta struct {
	Name           string          `json:"name"`
	Label          string          `json:"label"`
	Type           string          `json:"type"`
	Length         int             `json:"length"`
	Precision      int             `json:"precision"`
	Scale          int             `json:"scale"`
	Nillable       bool            `json:"nillable"`
	Unique         bool            `json:"unique"`
	Createable     bool            `json:"createable"`
	Updateable     bool            `json:"updateable"`
	Calculated     bool            `json:"calculated"`
	DefaultValue   any             `json:"defaultValue"`
	PicklistValues []PicklistEntry `json:"picklistValues"`
	ReferenceTo    []string        `json:"referenceTo"`
}

// PicklistEntry is one enumerated value of a picklist/multipicklist field.
type PicklistEntry struct {
	Active       bool   `json:"active"`
	DefaultValue bool   `json:"defaultValue"`
	Label        string `json:"label"`
	Value        string `json:"value"`
}

// ─── query payload ───────────────────────────────────────────────────────────

// QueryResult is the raw response of the query endpoint. TotalSize is the
// remote-reported total and may exceed len(Records) when Salesforce
// truncates a batch; NextRecordsURL is carried but never followed here.
type QueryResult struct {
	TotalSize      int       `json:"totalSize"`
	Done           bool      `json:"done"`
	NextRecordsURL string    `json:"nextRecordsUrl"`
	Records        []*Record `json:"records"`
}

// ─── errors ──────────────────────────────────────────────────────────────────

// APIErrorDetail is one entry of the JSON error array Salesforce returns
// on a failed REST call.
type APIErrorDetail struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// APIError is a non-2xx REST response. The remote-provided messages are
// preserved verbatim; this system adds no translation or recovery.
type APIError struct {
	StatusCode int
	Errors     []APIErrorDetail
	Body       string // raw body, kept when the error array cannot be parsed
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("salesforce: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
	}
	parts := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		if d.ErrorCode != "" {
			parts[i] = d.ErrorCode + ": " + d.Message
		} else {
			parts[i] = d.Message
		}
	}
	return "salesforce: " + strings.Join(parts, "; ")
}

// newAPIError parses a REST error body into an APIError, falling back to
// the raw body when it is not the documented JSON array shape.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}
	var details []APIErrorDetail
	if err := json.Unmarshal(body, &details); err == nil {
		apiErr.Errors = details
	}
	return apiErr
}

// AuthError is a rejected login. The client handle stays uninitialized so a
// later call can retry from scratch.
type AuthError struct {
	Code    string // SOAP faultcode or OAuth error
	Message string // SOAP faultstring or OAuth error_description, verbatim
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("salesforce: authentication failed: %s: %s", e.Code, e.Message)
	}
	return "salesforce: authentication failed: " + e.Message
}
