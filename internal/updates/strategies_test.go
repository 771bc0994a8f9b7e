package updates

import (
	"testing"

	version "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/require"
)

func TestExtractVersionOrdering(t *testing.T) {
	tests := []struct {
		name         string
		release      Release
		want         string
		wantStrategy string
		wantErr      bool
	}{
		{
			name:         "version field wins over everything",
			release:      Release{Product: "agent", Version: "2.1.0", DisplayVersion: "2.0.0", FileName: "agent-1.0.0.msi"},
			want:         "2.1.0",
			wantStrategy: "version-field",
		},
		{
			name:         "display version used when version field empty",
			release:      Release{Product: "agent", DisplayVersion: "3.4", FileName: "agent-1.0.0.msi"},
			want:         "3.4",
			wantStrategy: "display-version-field",
		},
		{
			name:         "filename regex as last resort",
			release:      Release{Product: "agent", FileName: "AgentSetup-7.4.1-x64.msi"},
			want:         "7.4.1",
			wantStrategy: "filename-regex",
		},
		{
			name:    "nothing extractable",
			release: Release{Product: "agent", FileName: "AgentSetup.msi"},
			wantErr: true,
		},
		{
			name:    "unparseable hit does not fall through",
			release: Release{Product: "agent", Version: "not-a-version", FileName: "agent-1.0.0.msi"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, strategy, err := ExtractVersion(tt.release, DefaultStrategies)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStrategy, strategy)
			require.True(t, v.Equal(version.Must(version.NewVersion(tt.want))), "got %s, want %s", v, tt.want)
		})
	}
}
