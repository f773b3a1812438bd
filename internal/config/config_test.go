package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.SegmentCapacity != 1004 {
		t.Errorf("SegmentCapacity = %d, want 1004", cfg.SegmentCapacity)
	}
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.StreamPort = 70000 }},
		{"bad broadcast", func(c *Config) { c.BroadcastAddr = "not an address" }},
		{"zero timeout", func(c *Config) { c.IdleTimeout = 0 }},
		{"capacity exceeds buffer", func(c *Config) { c.SegmentCapacity = c.BufferSize }},
		{"dscp out of range", func(c *Config) { c.DSCP = 64 }},
		{"unknown role", func(c *Config) { c.Role = "relay" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidateAcceptsRoles(t *testing.T) {
	for _, role := range []Role{"", RoleServer, RoleClient} {
		cfg := Default()
		cfg.Role = role
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with role %q = %v", role, err)
		}
	}
}
