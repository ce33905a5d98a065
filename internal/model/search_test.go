package model

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    PlatformType
		wantErr bool
	}{
		{"alibaba", PlatformAlibaba, false},
		{"Alibaba", PlatformAlibaba, false},
		{"made-in-china", PlatformMadeInChina, false},
		{"madeinchina", PlatformMadeInChina, false},
		{"MIC", PlatformMadeInChina, false},
		{"  alibaba  ", PlatformAlibaba, false},
		{"amazon", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInputType(t *testing.T) {
	t.Parallel()

	got, err := ParseInputType("TEXT")
	require.NoError(t, err)
	assert.Equal(t, InputTypeText, got)

	got, err = ParseInputType("image")
	require.NoError(t, err)
	assert.Equal(t, InputTypeImage, got)

	_, err = ParseInputType("video")
	assert.Error(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	t.Parallel()

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	att, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MIME)
	assert.Equal(t, raw, att.Data)
}

func TestDecodeDataURIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/a.png"},
		{"missing payload", "data:image/png;base64"},
		{"not base64 encoded", "data:text/plain,hello"},
		{"bad base64", "data:image/png;base64,!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeDataURI(tt.uri)
			assert.Error(t, err)
		})
	}
}

func TestIsDataURI(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDataURI("data:image/jpeg;base64,abcd"))
	assert.False(t, IsDataURI("red office chair"))
	assert.False(t, IsDataURI("data:text/plain;base64,abcd"))
}

func TestAllPlatforms(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []PlatformType{PlatformAlibaba, PlatformMadeInChina}, AllPlatforms())
}
