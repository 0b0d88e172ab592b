package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreatedTime(t *testing.T) {
	tests := []struct {
		name    string
		created string
		want    time.Time
		ok      bool
	}{
		{"utc", "2025-12-19T09:00:00Z", time.Date(2025, 12, 19, 9, 0, 0, 0, time.UTC), true},
		{"offset", "2025-12-19T09:00:00-03:00", time.Date(2025, 12, 19, 12, 0, 0, 0, time.UTC), true},
		{"zone-less reads as UTC", "2025-12-19 09:00:00", time.Date(2025, 12, 19, 9, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Record{CreatedAt: tt.created}.CreatedTime()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "x", Value(Ptr("x")))
	assert.Equal(t, "", Value(Ptr("")))
}
