package mongo

import (
	"testing"
	"time"
)

func TestReservedUserDoc_ToInfo(t *testing.T) {
	stored := reservedUserDoc{ID: reservedUserID("kibana"), Username: "kibana", Password: "$2a$04$hash", Enabled: false}
	info := stored.toInfo()
	if info.HasDefaultPassword || info.Enabled || string(info.PasswordHash) != "$2a$04$hash" {
		t.Fatalf("unexpected info %+v", info)
	}

	fresh := reservedUserDoc{ID: reservedUserID("elastic"), Enabled: true}
	info = fresh.toInfo()
	if !info.HasDefaultPassword || !info.PasswordHash.Empty() || !info.Enabled {
		t.Fatalf("an empty password means the default credential, got %+v", info)
	}
}

func TestReservedUserDoc_ToInfoCarriesPasswordChange(t *testing.T) {
	changed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	info := reservedUserDoc{ID: reservedUserID("elastic"), Password: "$2a$04$hash", PasswordChangedAt: changed}.toInfo()
	if !info.PasswordChangedAt.Equal(changed) {
		t.Fatalf("expected password change time %v, got %v", changed, info.PasswordChangedAt)
	}
	if !(reservedUserDoc{ID: reservedUserID("kibana")}).toInfo().PasswordChangedAt.IsZero() {
		t.Fatalf("records without a change time must report zero")
	}
}

func TestReservedUserDoc_Principal(t *testing.T) {
	if got := (reservedUserDoc{ID: "reserved-user-beats_system"}).principal(); got != "beats_system" {
		t.Fatalf("expected principal from id, got %q", got)
	}
	if got := (reservedUserDoc{ID: "reserved-user-x", Username: "logstash_system"}).principal(); got != "logstash_system" {
		t.Fatalf("expected stored username to win, got %q", got)
	}
	if reservedUserID("elastic") != "reserved-user-elastic" {
		t.Fatalf("unexpected document id")
	}
}

func TestEventFilter(t *testing.T) {
	if len(eventFilter("")) != 0 {
		t.Fatalf("an empty username must match every event")
	}
	if got := eventFilter("kibana")["username"]; got != "kibana" {
		t.Fatalf("expected username filter, got %v", got)
	}
}
