package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr error
	}{
		{
			name:   "playlist page",
			raw:    "https://www.youtube.com/playlist?list=PL123",
			wantID: "PL123",
		},
		{
			name:   "watch page with list and extra params",
			raw:    "https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&start_radio=1",
			wantID: "PLAYLIST_ID",
		},
		{
			name:   "surrounding whitespace",
			raw:    "  https://m.youtube.com/playlist?list=OLAK5uy_abc-9  ",
			wantID: "OLAK5uy_abc-9",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrMissing,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: ErrMissing,
		},
		{
			name:    "no list parameter",
			raw:     "https://example.com/watch?v=x",
			wantErr: ErrInvalid,
		},
		{
			name:    "empty list parameter",
			raw:     "https://www.youtube.com/playlist?list=",
			wantErr: ErrInvalid,
		},
		{
			name:    "not a url",
			raw:     "list=PL123",
			wantErr: ErrInvalid,
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://www.youtube.com/playlist?list=PL123",
			wantErr: ErrInvalid,
		},
		{
			name:    "id with illegal characters",
			raw:     "https://www.youtube.com/playlist?list=PL%3Cscript%3E",
			wantErr: ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Parse(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, loc.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, loc.ID)
		})
	}
}

func TestLocator_TargetURL(t *testing.T) {
	loc, err := Parse("https://www.youtube.com/watch?v=abc&list=PL123&index=4")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/playlist?list=PL123", loc.TargetURL())
	assert.Equal(t, "PL123", loc.String())
}
