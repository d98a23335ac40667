package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"CLIName", CLIName(), "bumpwright"},
		{"HomeDir", HomeDir(), ".bumpwright"},
		{"EnvPrefix", EnvPrefix(), "BUMPWRIGHT"},
		{"EnvVar", EnvVar("log_level"), "BUMPWRIGHT_LOG_LEVEL"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if DisplayName() == "" || Description() == "" || GitHubRepo() == "" {
		t.Error("display name, description and repo must not be empty")
	}
}
