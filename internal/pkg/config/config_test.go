package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.TokenTTL != time.Hour || cfg.StoreWorkers != 8 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	settings := cfg.RealmSettings()
	if !settings.Enabled || !settings.AcceptDefaultPassword {
		t.Fatalf("realm must be enabled and accept the default password by default")
	}
	if anon := cfg.AnonymousUser(); anon.Username != "_anonymous" || anon.Enabled() {
		t.Fatalf("unexpected anonymous user %+v", anon)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"REALM_ENABLED":           "false",
		"ACCEPT_DEFAULT_PASSWORD": "false",
		"ANONYMOUS_USERNAME":      "guest",
		"ANONYMOUS_ROLES":         "viewer,monitor",
		"TOKEN_TTL":               "15m",
		"MONGO_DB":                "realm",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RealmSettings().Enabled || cfg.RealmSettings().AcceptDefaultPassword {
		t.Fatalf("overrides not applied: %+v", cfg.Realm)
	}
	anon := cfg.AnonymousUser()
	if anon.Username != "guest" || len(anon.Roles) != 2 || !anon.Enabled() {
		t.Fatalf("unexpected anonymous user %+v", anon)
	}
	if cfg.TokenTTL != 15*time.Minute || cfg.Mongo.Database != "realm" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                "production",
		"BOOTSTRAP_PASSWORD": "abc",
	}))
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"JWT_SECRET", "BOOTSTRAP_PASSWORD"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}
