package query_test

import (
	"testing"

	"github.com/JaimeStill/rhythmrisk/pkg/query"
)

func documentProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("status", "Status").
		Project("organization_id", "OrganizationID").
		Project("created_at", "CreatedAt").
		LeftJoin("entities", "e", "e.id = d.entity_id").
		ProjectFrom("e", "name", "EntityName")
}

func TestProjectionFrom(t *testing.T) {
	p := documentProjection()

	want := "public.documents d LEFT JOIN public.entities e ON e.id = d.entity_id"
	if got := p.From(); got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
	if got := p.Columns(); got != "d.id, d.status, d.organization_id, d.created_at, e.name" {
		t.Errorf("Columns() = %q", got)
	}
	if got := p.Column("EntityName"); got != "e.name" {
		t.Errorf("Column(EntityName) = %q", got)
	}
	if got := p.Column("unmapped"); got != "unmapped" {
		t.Errorf("Column(unmapped) = %q", got)
	}
}

func TestBuilderPage(t *testing.T) {
	var status *string
	sql, args := query.NewBuilder(documentProjection(), query.SortField{Field: "CreatedAt", Descending: true}).
		WhereEquals("OrganizationID", "org-1").
		WhereEquals("Status", status).
		WhereNotEmpty("Status", "").
		WhereNotEmpty("EntityName", "Default").
		BuildPage(10, 20)

	want := "SELECT d.id, d.status, d.organization_id, d.created_at, e.name " +
		"FROM public.documents d LEFT JOIN public.entities e ON e.id = d.entity_id " +
		"WHERE d.organization_id = $1 AND e.name = $2 " +
		"ORDER BY d.created_at DESC LIMIT 10 OFFSET 20"

	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 2 || args[0] != "org-1" || args[1] != "Default" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderSingle(t *testing.T) {
	sql, args := query.NewBuilder(documentProjection()).
		WhereEquals("OrganizationID", "org-1").
		BuildSingle("ID", "doc-1")

	want := "SELECT d.id, d.status, d.organization_id, d.created_at, e.name " +
		"FROM public.documents d LEFT JOIN public.entities e ON e.id = d.entity_id " +
		"WHERE d.organization_id = $1 AND d.id = $2"

	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 2 || args[1] != "doc-1" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderCount(t *testing.T) {
	sql, args := query.NewBuilder(documentProjection()).
		WhereEquals("Status", "pending").
		BuildCount()

	want := "SELECT COUNT(*) FROM public.documents d " +
		"LEFT JOIN public.entities e ON e.id = d.entity_id WHERE d.status = $1"
	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}
}
