package discovery

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Service constants.
const (
	ServiceType = "_sprinkler._tcp"
	Domain      = "local."
	DefaultPort = 8080
	APIVersion  = 1

	// MaxInstanceNameLength is the DNS label limit for instance names.
	MaxInstanceNameLength = 63
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"
	TXTKeyZones   = "zones"
	TXTKeyName    = "name"
	TXTKeyPath    = "path"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInvalidInstanceName = errors.New("invalid instance name")
	ErrNotAdvertised       = errors.New("service not advertised")
)

// ServiceInfo describes the advertised API.
type ServiceInfo struct {
	// Instance is the mDNS instance name.
	Instance string

	// Port is the HTTP port. Zero selects DefaultPort.
	Port uint16

	// Zones is the configured zone count.
	Zones int

	// Name is a display name for the controller.
	Name string

	// Path is the API base path.
	Path string
}

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for info.
func EncodeTXT(info *ServiceInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyVersion: strconv.Itoa(APIVersion),
		TXTKeyZones:   strconv.Itoa(info.Zones),
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	path := info.Path
	if path == "" {
		path = "/"
	}
	txt[TXTKeyPath] = path
	return txt
}

// DecodeTXT parses TXT records into a ServiceInfo.
func DecodeTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	info := &ServiceInfo{}

	if _, ok := txt[TXTKeyVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}

	zs, ok := txt[TXTKeyZones]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyZones)
	}
	n, err := strconv.Atoi(zs)
	if err != nil || n < 1 || n > zone.MaxZones {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyZones, zs)
	}
	info.Zones = n

	info.Name = txt[TXTKeyName]
	info.Path = txt[TXTKeyPath]
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap into sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks that name is usable as an mDNS instance label.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidInstanceName)
	}
	if len(name) > MaxInstanceNameLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidInstanceName, MaxInstanceNameLength)
	}
	if strings.ContainsAny(name, ".\x00") {
		return fmt.Errorf("%w: contains '.' or NUL", ErrInvalidInstanceName)
	}
	return nil
}
