package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUUIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	id := uuid.NewString()
	tests := []struct {
		name    string
		params  gin.Params
		want    string
		wantErr string
	}{
		{"valid", gin.Params{{Key: "creator_id", Value: id}}, id, ""},
		{"missing", gin.Params{}, "", "Creator ID not found"},
		{"not a uuid", gin.Params{{Key: "creator_id", Value: "42"}}, "", "Invalid Creator ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Params = tt.params

			got, err := GetUUIDParam(c, "creator_id")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"example.com/landing", "https://example.com/landing", false},
		{"  http://shop.example.com  ", "http://shop.example.com", false},
		{"ftp://example.com", "", true},
		{"", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppendURLParams(t *testing.T) {
	got, err := AppendURLParams("https://shop.example.com/p?utm_source=tiktok", "?utm_source=meta&utm_medium=paid")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/p?utm_medium=paid&utm_source=tiktok", got)

	unchanged, err := AppendURLParams("https://shop.example.com", "  ")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", unchanged)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
