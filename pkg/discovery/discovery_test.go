package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTXT(t *testing.T) {
	info := &ServiceInfo{Instance: "sprinkler-1", Zones: 7, Name: "Backyard"}

	txt := EncodeTXT(info)
	assert.Equal(t, "1", txt[TXTKeyVersion])
	assert.Equal(t, "7", txt[TXTKeyZones])
	assert.Equal(t, "/", txt[TXTKeyPath])

	strs := TXTRecordsToStrings(txt)
	assert.Equal(t, []string{"name=Backyard", "path=/", "ver=1", "zones=7"}, strs)

	got, err := DecodeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, 7, got.Zones)
	assert.Equal(t, "Backyard", got.Name)
	assert.Equal(t, "/", got.Path)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"no version", TXTRecordMap{TXTKeyZones: "7"}, ErrMissingRequired},
		{"no zones", TXTRecordMap{TXTKeyVersion: "1"}, ErrMissingRequired},
		{"bad zones", TXTRecordMap{TXTKeyVersion: "1", TXTKeyZones: "x"}, ErrInvalidTXTRecord},
		{"too many zones", TXTRecordMap{TXTKeyVersion: "1", TXTKeyZones: "9"}, ErrInvalidTXTRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTXT(tt.txt)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeTXT() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStringsToTXTRecordsFlags(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "", "b=x=y"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("Sprinkler Backyard"))
	assert.ErrorIs(t, ValidateInstanceName(""), ErrInvalidInstanceName)
	assert.ErrorIs(t, ValidateInstanceName("a.b"), ErrInvalidInstanceName)
	assert.ErrorIs(t, ValidateInstanceName(strings.Repeat("x", 64)), ErrInvalidInstanceName)
}

func TestMDNSAdvertiserRejectsBadName(t *testing.T) {
	a := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	err := a.Advertise(context.Background(), &ServiceInfo{Instance: ""})
	assert.ErrorIs(t, err, ErrInvalidInstanceName)

	assert.ErrorIs(t, a.Update(&ServiceInfo{Zones: 7}), ErrNotAdvertised)
	assert.NoError(t, a.Stop())
}
