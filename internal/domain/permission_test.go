package domain

import "testing"

func TestNewGrant(t *testing.T) {
	p := NewGrant(1, 10, 20, VerbGet, "https")

	if !p.Grant || p.Deny {
		t.Fatalf("expected grant-only permission, got %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestNewDeny(t *testing.T) {
	p := NewDeny(1, 10, 20, VerbDelete, "https")

	if !p.Deny || p.Grant {
		t.Fatalf("expected deny-only permission, got %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
	if !p.IsDeny() {
		t.Error("expected IsDeny to report true")
	}
}

func TestPermission_Validate(t *testing.T) {
	base := func() Permission {
		return Permission{EntityID: 1, ResourceID: 1, Verb: VerbGet, Scheme: "https", Grant: true}
	}

	tests := []struct {
		name    string
		mutate  func(p *Permission)
		wantErr error
	}{
		{name: "valid", mutate: func(p *Permission) {}},
		{name: "zero entity id", mutate: func(p *Permission) { p.EntityID = 0 }, wantErr: ErrInvalidEntityID},
		{name: "zero resource id", mutate: func(p *Permission) { p.ResourceID = 0 }, wantErr: ErrInvalidResourceID},
		{name: "invalid verb", mutate: func(p *Permission) { p.Verb = Verb("FETCH") }, wantErr: ErrInvalidVerb},
		{name: "empty scheme", mutate: func(p *Permission) { p.Scheme = "" }, wantErr: ErrInvalidScheme},
		{name: "neither grant nor deny", mutate: func(p *Permission) { p.Grant = false }, wantErr: ErrGrantXorDeny},
		{name: "both grant and deny", mutate: func(p *Permission) { p.Deny = true }, wantErr: ErrGrantXorDeny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			if err := p.Validate(); err != tt.wantErr {
				t.Errorf("Permission.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPermission_Key(t *testing.T) {
	p1 := NewGrant(1, 10, 20, VerbGet, "https")
	p2 := NewDeny(2, 10, 20, VerbGet, "https")

	if p1.Key() != p2.Key() {
		t.Error("expected grant and deny on the same tuple to share a key")
	}

	p3 := NewGrant(3, 10, 20, VerbPost, "https")
	if p1.Key() == p3.Key() {
		t.Error("expected different verbs to produce different keys")
	}
}
