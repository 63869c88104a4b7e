package org

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/matiasleandrokruk/sfmcp/internal/infra/salesforce"
)

// fakeAPI is a stable in-memory stand-in for the remote org.
type fakeAPI struct {
	global   *salesforce.GlobalDescribe
	describe map[string]*salesforce.ObjectDescribe
	query    *salesforce.QueryResult

	describeErr error
	queryErr    error
	calls       int
}

func (f *fakeAPI) DescribeGlobal(ctx context.Context) (*salesforce.GlobalDescribe, error) {
	f.calls++
	return f.global, nil
}

func (f *fakeAPI) DescribeSObject(ctx context.Context, name string) (*salesforce.ObjectDescribe, error) {
	f.calls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	d, ok := f.describe[name]
	if !ok {
		return nil, &salesforce.APIError{StatusCode: 404, Errors: []salesforce.APIErrorDetail{
			{Message: "The requested resource does not exist", ErrorCode: "NOT_FOUND"},
		}}
	}
	return d, nil
}

func (f *fakeAPI) Query(ctx context.Context, soql string) (*salesforce.QueryResult, error) {
	f.calls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.query, nil
}

func serviceWith(api API) *Service {
	return NewService(ProviderFunc(func(ctx context.Context) (API, error) {
		return api, nil
	}))
}

func mustRecord(t *testing.T, raw string) *salesforce.Record {
	t.Helper()
	var rec salesforce.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("fixture record: %v", err)
	}
	return &rec
}

// ─── list_objects ────────────────────────────────────────────────────────────

func TestListObjects_ProjectsAndPreservesOrder(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{global: &salesforce.GlobalDescribe{Sobjects: []salesforce.SObjectMeta{
		{Name: "Account", Label: "Account", Queryable: true, Searchable: true, Createable: true, Updateable: true, Deletable: true},
		{Name: "Invoice__c", Label: "Invoice", Custom: true, Queryable: true},
	}}}

	out, err := serviceWith(api).ListObjects(context.Background())
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}

	if len(out.Objects) != 2 {
		t.Fatalf("objects = %d, want 2", len(out.Objects))
	}
	if out.Objects[0].Name != "Account" || out.Objects[1].Name != "Invoice__c" {
		t.Fatalf("remote ordering not preserved: %+v", out.Objects)
	}
	if !out.Objects[1].Custom || out.Objects[1].Deletable {
		t.Fatalf("flags not projected: %+v", out.Objects[1])
	}
}

func TestListObjects_Idempotent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{global: &salesforce.GlobalDescribe{Sobjects: []salesforce.SObjectMeta{
		{Name: "Account", Label: "Account", Queryable: true},
	}}}
	svc := serviceWith(api)

	first, err := svc.ListObjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ListObjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two calls against a stable backend should be identical")
	}
}

func TestListObjects_ProviderFailure_NoRemoteCall(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	wantErr := errors.New("missing required Salesforce credentials")
	svc := NewService(ProviderFunc(func(ctx context.Context) (API, error) {
		return nil, wantErr
	}))

	if _, err := svc.ListObjects(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if api.calls != 0 {
		t.Fatalf("no remote call must be attempted, got %d", api.calls)
	}
}

// ─── describe_object ─────────────────────────────────────────────────────────

func accountDescribe() *salesforce.ObjectDescribe {
	return &salesforce.ObjectDescribe{
		Name:  "Account",
		Label: "Account",
		Fields: []salesforce.FieldMeta{
			{Name: "Id", Label: "Account ID", Type: "id", Length: 18, Nillable: false, Createable: false},
			{Name: "Name", Label: "Account Name", Type: "string", Length: 255, Nillable: false, Createable: true, Updateable: true},
			{Name: "AnnualRevenue", Label: "Annual Revenue", Type: "currency", Precision: 18, Scale: 2, Nillable: true, Createable: true, Updateable: true},
			{Name: "Industry", Label: "Industry", Type: "picklist", Length: 255, Nillable: true, Createable: true, Updateable: true,
				PicklistValues: []salesforce.PicklistEntry{
					{Active: true, Label: "Agriculture", Value: "Agriculture"},
					{Active: true, Label: "Banking", Value: "Banking"},
				}},
			{Name: "OwnerId", Label: "Owner ID", Type: "reference", Length: 18, Nillable: false, Createable: true, Updateable: true,
				ReferenceTo: []string{"User"}},
		},
	}
}

func TestDescribeObject_RequiredIsNotNillable(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{describe: map[string]*salesforce.ObjectDescribe{"Account": accountDescribe()}}
	out, err := serviceWith(api).DescribeObject(context.Background(), "Account")
	if err != nil {
		t.Fatalf("DescribeObject: %v", err)
	}

	byName := map[string]FieldDescriptor{}
	for _, fd := range out.Fields {
		byName[fd.Name] = fd
	}
	for name, field := range map[string]salesforce.FieldMeta{
		"Id":            accountDescribe().Fields[0],
		"Name":          accountDescribe().Fields[1],
		"AnnualRevenue": accountDescribe().Fields[2],
		"Industry":      accountDescribe().Fields[3],
		"OwnerId":       accountDescribe().Fields[4],
	} {
		if byName[name].Required != !field.Nillable {
			t.Errorf("%s: required = %v, nillable = %v; want negation", name, byName[name].Required, field.Nillable)
		}
	}
}

func TestDescribeObject_PicklistValues(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{describe: map[string]*salesforce.ObjectDescribe{"Account": accountDescribe()}}
	out, err := serviceWith(api).DescribeObject(context.Background(), "Account")
	if err != nil {
		t.Fatal(err)
	}

	var industry, name FieldDescriptor
	for _, fd := range out.Fields {
		switch fd.Name {
		case "Industry":
			industry = fd
		case "Name":
			name = fd
		}
	}

	if industry.PicklistValues == nil {
		t.Fatal("picklist field must carry picklistValues")
	}
	want := []PicklistValue{{Label: "Agriculture", Value: "Agriculture"}, {Label: "Banking", Value: "Banking"}}
	if !reflect.DeepEqual(*industry.PicklistValues, want) {
		t.Fatalf("picklistValues = %+v, want %+v (remote order)", *industry.PicklistValues, want)
	}
	if name.PicklistValues != nil {
		t.Fatal("non-picklist field must not carry picklistValues")
	}
}

func TestDescribeObject_EmptyPicklistStillPresent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{describe: map[string]*salesforce.ObjectDescribe{"Thing__c": {
		Name: "Thing__c", Label: "Thing",
		Fields: []salesforce.FieldMeta{
			{Name: "State__c", Label: "State", Type: "multipicklist", Nillable: true},
		},
	}}}
	out, err := serviceWith(api).DescribeObject(context.Background(), "Thing__c")
	if err != nil {
		t.Fatal(err)
	}
	pv := out.Fields[0].PicklistValues
	if pv == nil || len(*pv) != 0 {
		t.Fatalf("expected present-but-empty picklistValues, got %v", pv)
	}
}

func TestDescribeObject_ReferenceTo(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{describe: map[string]*salesforce.ObjectDescribe{"Account": accountDescribe()}}
	out, err := serviceWith(api).DescribeObject(context.Background(), "Account")
	if err != nil {
		t.Fatal(err)
	}

	for _, fd := range out.Fields {
		switch fd.Name {
		case "OwnerId":
			if !reflect.DeepEqual(fd.ReferenceTo, []string{"User"}) {
				t.Errorf("OwnerId referenceTo = %v", fd.ReferenceTo)
			}
		case "Name":
			if fd.ReferenceTo != nil {
				t.Errorf("Name should not carry referenceTo, got %v", fd.ReferenceTo)
			}
		}
	}
}

func TestDescribeObject_UnknownName_RemoteErrorPropagates(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{describe: map[string]*salesforce.ObjectDescribe{}}
	_, err := serviceWith(api).DescribeObject(context.Background(), "Bogus__c")

	var apiErr *salesforce.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected the remote *APIError unmodified, got %v", err)
	}
}

// ─── execute_soql_query ──────────────────────────────────────────────────────

func TestExecuteQuery_StripsAttributesAndDerivesColumns(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{query: &salesforce.QueryResult{
		TotalSize: 2,
		Done:      true,
		Records: []*salesforce.Record{
			mustRecord(t, `{"attributes":{"type":"Account","url":"/services/data/v62.0/sobjects/Account/001A"},"Id":"001A","Name":"Acme"}`),
			mustRecord(t, `{"attributes":{"type":"Account","url":"/services/data/v62.0/sobjects/Account/001B"},"Id":"001B","Name":"Globex"}`),
		},
	}}

	out, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT Id, Name FROM Account LIMIT 2")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}

	if out.Query != "SELECT Id, Name FROM Account LIMIT 2" {
		t.Errorf("query not echoed verbatim: %q", out.Query)
	}
	if out.RowCount != 2 || len(out.Rows) != 2 {
		t.Fatalf("row_count=%d rows=%d", out.RowCount, len(out.Rows))
	}
	if !reflect.DeepEqual(out.Columns, []string{"Id", "Name"}) {
		t.Fatalf("columns = %v, want [Id Name]", out.Columns)
	}
	for i, row := range out.Rows {
		if _, ok := row.Get("attributes"); ok {
			t.Errorf("row %d still carries attributes", i)
		}
	}
	if v, _ := out.Rows[1].Get("Name"); v != "Globex" {
		t.Errorf("row 1 Name = %v", v)
	}
}

func TestExecuteQuery_ColumnsMatchFirstRowKeyOrder(t *testing.T) {
	t.Parallel()

	// The remote controls field order per record; columns must mirror the
	// first row's order exactly, not a sorted or schema order.
	api := &fakeAPI{query: &salesforce.QueryResult{
		TotalSize: 1,
		Records: []*salesforce.Record{
			mustRecord(t, `{"attributes":{"type":"Contact"},"LastName":"Ng","FirstName":"Ada","Email":"ada@example.com"}`),
		},
	}}

	out, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT LastName, FirstName, Email FROM Contact")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Columns, []string{"LastName", "FirstName", "Email"}) {
		t.Fatalf("columns = %v", out.Columns)
	}
}

func TestExecuteQuery_CountNormalization(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{query: &salesforce.QueryResult{TotalSize: 42, Done: true, Records: nil}}

	out, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT COUNT() FROM Account")
	if err != nil {
		t.Fatal(err)
	}

	if out.RowCount != 42 {
		t.Errorf("row_count = %d, want 42", out.RowCount)
	}
	if !reflect.DeepEqual(out.Columns, []string{"cnt"}) {
		t.Errorf("columns = %v, want [cnt]", out.Columns)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(out.Rows))
	}
	if v, _ := out.Rows[0].Get("cnt"); v != 42 {
		t.Errorf("cnt = %v, want 42", v)
	}

	// The envelope serializes to the documented shape.
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Rows     []map[string]int `json:"rows"`
		RowCount int              `json:"row_count"`
		Columns  []string         `json:"columns"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Rows) != 1 || decoded.Rows[0]["cnt"] != 42 {
		t.Errorf("serialized rows = %v", decoded.Rows)
	}
}

func TestExecuteQuery_EmptyResult(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{query: &salesforce.QueryResult{TotalSize: 0, Done: true}}

	out, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT Id FROM Account WHERE Name = 'nope'")
	if err != nil {
		t.Fatal(err)
	}
	if out.RowCount != 0 || len(out.Rows) != 0 || len(out.Columns) != 0 {
		t.Fatalf("empty result must stay empty: %+v", out)
	}

	// rows/columns serialize as [], never null.
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !json.Valid(data) || !containsAll(s, `"rows":[]`, `"columns":[]`) {
		t.Errorf("serialized envelope = %s", s)
	}
}

func TestExecuteQuery_RowCountMayExceedRows(t *testing.T) {
	t.Parallel()

	// The remote truncates; row_count keeps the remote total and no
	// continuation page is fetched.
	api := &fakeAPI{query: &salesforce.QueryResult{
		TotalSize:      5000,
		Done:           false,
		NextRecordsURL: "/services/data/v62.0/query/01gxx-2000",
		Records: []*salesforce.Record{
			mustRecord(t, `{"attributes":{"type":"Lead"},"Id":"00Q1"}`),
		},
	}}

	out, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT Id FROM Lead")
	if err != nil {
		t.Fatal(err)
	}
	if out.RowCount != 5000 || len(out.Rows) != 1 {
		t.Fatalf("row_count=%d rows=%d, want 5000/1", out.RowCount, len(out.Rows))
	}
	if api.calls != 1 {
		t.Fatalf("exactly one remote round trip expected, got %d", api.calls)
	}
}

func TestExecuteQuery_RemoteErrorPropagates(t *testing.T) {
	t.Parallel()

	remoteErr := &salesforce.APIError{StatusCode: 400, Errors: []salesforce.APIErrorDetail{
		{Message: "unexpected token: '*'", ErrorCode: "MALFORMED_QUERY"},
	}}
	api := &fakeAPI{queryErr: remoteErr}

	_, err := serviceWith(api).ExecuteQuery(context.Background(), "SELECT * FROM Account")
	if !errors.Is(err, remoteErr) {
		t.Fatalf("expected the remote error unmodified, got %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		found := false
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
