package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/polyglot-go/internal/model"
	"github.com/olegiv/polyglot-go/internal/testutil"
)

func ref(id int64, kind string) model.ElementRef {
	return model.ElementRef{ID: id, Kind: kind}
}

func strPtr(s string) *string { return &s }

func TestCreateGroup(t *testing.T) {
	db := testutil.TestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	origin := ref(1, model.ElementKindPost)
	group, err := s.CreateGroup(ctx, origin, "en")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if group.TRID == 0 {
		t.Error("expected non-zero trid")
	}

	member, ok := group.Member("en")
	if !ok {
		t.Fatal("origin member missing")
	}
	if !member.IsOrigin() {
		t.Error("origin member must have no source relation")
	}
	if member.Element != origin {
		t.Errorf("origin element = %v, want %v", member.Element, origin)
	}

	// Same element cannot get a second group.
	if _, err := s.CreateGroup(ctx, origin, "en"); !errors.Is(err, ErrAlreadyGrouped) {
		t.Errorf("second CreateGroup = %v, want ErrAlreadyGrouped", err)
	}
}

func TestAddMemberInvariants(t *testing.T) {
	db := testutil.TestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	group, err := s.CreateGroup(ctx, ref(1, model.ElementKindPost), "en")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	trid := group.TRID

	if err := s.AddMember(ctx, trid, ref(2, model.ElementKindPost), "es", strPtr("en")); err != nil {
		t.Fatalf("AddMember es: %v", err)
	}

	tests := []struct {
		name    string
		trid    int64
		element model.ElementRef
		locale  string
		source  *string
		wantErr error
	}{
		{"locale taken", trid, ref(3, model.ElementKindPost), "es", strPtr("en"), ErrLocaleTaken},
		{"element already grouped", trid, ref(2, model.ElementKindPost), "fr", strPtr("en"), ErrAlreadyGrouped},
		{"unknown group", trid + 999, ref(4, model.ElementKindPost), "fr", strPtr("en"), ErrUnknownGroup},
		{"invalid source locale", trid, ref(4, model.ElementKindPost), "fr", strPtr("de"), ErrInvalidSourceLocale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddMember(ctx, tt.trid, tt.element, tt.locale, tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddMember = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Failed attempts must leave the group unchanged.
	got, err := s.GetGroupByID(ctx, trid)
	if err != nil {
		t.Fatalf("GetGroupByID: %v", err)
	}
	if got.Size() != 2 {
		t.Errorf("group size after failed adds = %d, want 2", got.Size())
	}
}

func TestGetGroupUngrouped(t *testing.T) {
	db := testutil.TestDB(t)
	s := NewStore(db)

	group, err := s.GetGroup(context.Background(), ref(42, model.ElementKindPage))
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if group != nil {
		t.Errorf("GetGroup = %+v, want nil for ungrouped element", group)
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.TestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	group, err := s.CreateGroup(ctx, ref(1, model.ElementKindPost), "en")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	trid := group.TRID
	if err := s.AddMember(ctx, trid, ref(2, model.ElementKindPost), "es", strPtr("en")); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// Removing the origin keeps the group; no origin reassignment.
	deleted, err := s.RemoveMember(ctx, trid, ref(1, model.ElementKindPost))
	if err != nil {
		t.Fatalf("RemoveMember origin: %v", err)
	}
	if deleted {
		t.Error("group with one member left must survive")
	}

	got, err := s.GetGroupByID(ctx, trid)
	if err != nil {
		t.Fatalf("GetGroupByID: %v", err)
	}
	if member, ok := got.Member("es"); !ok || member.SourceLocale == nil || *member.SourceLocale != "en" {
		t.Errorf("surviving member = %+v, want es with source en", member)
	}

	// Removing a non-member fails.
	if _, err := s.RemoveMember(ctx, trid, ref(99, model.ElementKindPost)); !errors.Is(err, ErrNotMember) {
		t.Errorf("RemoveMember non-member = %v, want ErrNotMember", err)
	}

	// Last removal deletes the group.
	deleted, err = s.RemoveMember(ctx, trid, ref(2, model.ElementKindPost))
	if err != nil {
		t.Fatalf("RemoveMember last: %v", err)
	}
	if !deleted {
		t.Error("removing the last member must delete the group")
	}

	gone, err := s.GetGroupByID(ctx, trid)
	if err != nil {
		t.Fatalf("GetGroupByID: %v", err)
	}
	if gone != nil {
		t.Error("group must be gone after last member removal")
	}

	if _, err := s.RemoveMember(ctx, trid, ref(2, model.ElementKindPost)); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("RemoveMember on deleted group = %v, want ErrUnknownGroup", err)
	}
}
