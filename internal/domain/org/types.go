package org

import "github.com/matiasleandrokruk/sfmcp/internal/infra/salesforce"

// ObjectSummary is the flattened projection of one object in the org's
// global describe. Recomputed on every call; nothing is cached.
type ObjectSummary struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Custom     bool   `json:"custom"`
	Queryable  bool   `json:"queryable"`
	Searchable bool   `json:"searchable"`
	Createable bool   `json:"createable"`
	Updateable bool   `json:"updateable"`
	Deletable  bool   `json:"deletable"`
}

// ObjectList is the list_objects output, preserving the remote ordering.
type ObjectList struct {
	Objects []ObjectSummary `json:"objects"`
}

// PicklistValue is one enumerated value of a picklist field.
type PicklistValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldDescriptor projects one field of an object describe. Required is the
// logical negation of the remote "nillable" flag. PicklistValues is present
// only for picklist/multipicklist fields (a pointer marks presence, so an
// empty picklist still serializes as []); ReferenceTo only when the field
// targets at least one object.
type FieldDescriptor struct {
	Name           string           `json:"name"`
	Label          string           `json:"label"`
	Type           string           `json:"type"`
	Length         int              `json:"length"`
	Precision      int              `json:"precision"`
	Scale          int              `json:"scale"`
	Required       bool             `json:"required"`
	Unique         bool             `json:"unique"`
	Createable     bool             `json:"createable"`
	Updateable     bool             `json:"updateable"`
	Calculated     bool             `json:"calculated"`
	DefaultValue   any              `json:"defaultValue"`
	PicklistValues *[]PicklistValue `json:"picklistValues,omitempty"`
	ReferenceTo    []string         `json:"referenceTo,omitempty"`
}

// ObjectDescription is the describe_object output.
type ObjectDescription struct {
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Fields []FieldDescriptor `json:"fields"`
}

// QueryEnvelope is the execute_soql_query output. Rows preserve each
// record's field order with the remote-internal "attributes" key removed;
// Columns is the first row's key sequence whenever Rows is non-empty;
// RowCount is the remote-reported total, which may exceed len(Rows) when
// Salesforce truncates a batch (no continuation pages are fetched).
type QueryEnvelope struct {
	Query    string               `json:"query"`
	Rows     []*salesforce.Record `json:"rows"`
	RowCount int                  `json:"row_count"`
	Columns  []string             `json:"columns"`
}
