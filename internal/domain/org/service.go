// Package org is the tool façade over the Salesforce schema and query APIs:
// it acquires the lazily-initialized client, makes a single remote round
// trip, and reshapes the raw payload into the stable envelopes the calling
// agent sees. No retries, no pagination, no local validation — the remote
// org is authoritative and its errors pass through unmodified.
package org

import (
	"context"

	"github.com/matiasleandrokruk/sfmcp/internal/infra/salesforce"
)

// API is the slice of the Salesforce client the façade consumes.
type API interface {
	DescribeGlobal(ctx context.Context) (*salesforce.GlobalDescribe, error)
	DescribeSObject(ctx context.Context, name string) (*salesforce.ObjectDescribe, error)
	Query(ctx context.Context, soql string) (*salesforce.QueryResult, error)
}

// ClientProvider hands out the process-wide client, creating it on first
// use. Failures (missing credentials, rejected login) surface here, before
// any remote call is attempted.
type ClientProvider interface {
	Get(ctx context.Context) (API, error)
}

// ProviderFunc adapts a function to the ClientProvider interface.
type ProviderFunc func(ctx context.Context) (API, error)

// Get implements ClientProvider.
func (f ProviderFunc) Get(ctx context.Context) (API, error) { return f(ctx) }

// Service implements the four façade operations.
type Service struct {
	clients ClientProvider
}

// NewService creates a Service backed by the given client provider.
func NewService(clients ClientProvider) *Service {
	return &Service{clients: clients}
}

// ListObjects projects the org-wide describe into object summaries,
// preserving the remote API's ordering. Bounded by whatever Salesforce
// returns in one call; there is no pagination.
func (s *Service) ListObjects(ctx context.Context) (*ObjectList, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	describe, err := client.DescribeGlobal(ctx)
	if err != nil {
		return nil, err
	}

	objects := make([]ObjectSummary, 0, len(describe.Sobjects))
	for _, sobject := range describe.Sobjects {
		objects = append(objects, ObjectSummary{
			Name:       sobject.Name,
			Label:      sobject.Label,
			Custom:     sobject.Custom,
			Queryable:  sobject.Queryable,
			Searchable: sobject.Searchable,
			Createable: sobject.Createable,
			Updateable: sobject.Updateable,
			Deletable:  sobject.Deletable,
		})
	}

	return &ObjectList{Objects: objects}, nil
}

// DescribeObject builds field descriptors for one object. The name is an
// opaque key: no local existence check, case handling is the remote
// system's business, and an unknown name surfaces as the remote error.
func (s *Service) DescribeObject(ctx context.Context, objectName string) (*ObjectDescription, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	describe, err := client.DescribeSObject(ctx, objectName)
	if err != nil {
		return nil, err
	}

	fields := make([]FieldDescriptor, 0, len(describe.Fields))
	for _, field := range describe.Fields {
		fields = append(fields, newFieldDescriptor(field))
	}

	return &ObjectDescription{
		Name:   describe.Name,
		Label:  describe.Label,
		Fields: fields,
	}, nil
}

func newFieldDescriptor(field salesforce.FieldMeta) FieldDescriptor {
	fd := FieldDescriptor{
		Name:         field.Name,
		Label:        field.Label,
		Type:         field.Type,
		Length:       field.Length,
		Precision:    field.Precision,
		Scale:        field.Scale,
		Required:     !field.Nillable,
		Unique:       field.Unique,
		Createable:   field.Createable,
		Updateable:   field.Updateable,
		Calculated:   field.Calculated,
		DefaultValue: field.DefaultValue,
	}

	if field.Type == "picklist" || field.Type == "multipicklist" {
		values := make([]PicklistValue, 0, len(field.PicklistValues))
		for _, pv := range field.PicklistValues {
			values = append(values, PicklistValue{Label: pv.Label, Value: pv.Value})
		}
		fd.PicklistValues = &values
	}

	if len(field.ReferenceTo) > 0 {
		fd.ReferenceTo = field.ReferenceTo
	}

	return fd
}

// ExecuteQuery runs a SOQL query verbatim and normalizes the result into
// the tabular envelope. Aggregate-only queries (a bare COUNT()) report a
// positive total with no structured rows; those normalize to a single
// {"cnt": total} row so every result has a uniform tabular shape.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*QueryEnvelope, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	result, err := client.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	rows := make([]*salesforce.Record, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.Without("attributes"))
	}

	columns := []string{}
	if len(rows) > 0 {
		columns = rows[0].Keys()
	}

	if result.TotalSize > 0 && len(rows) == 0 && len(columns) == 0 {
		cnt := salesforce.NewRecord()
		cnt.Set("cnt", result.TotalSize)
		rows = append(rows, cnt)
		columns = []string{"cnt"}
	}

	return &QueryEnvelope{
		Query:    query,
		Rows:     rows,
		RowCount: result.TotalSize,
		Columns:  columns,
	}, nil
}
