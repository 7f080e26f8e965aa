// Package discovery advertises the controller's HTTP API over mDNS so
// phones and home-automation hubs can find it without configuration.
//
// The service type is _sprinkler._tcp in the local. domain. TXT records
// carry the API version, zone count and the instance's display name:
//
//	ver=1 zones=7 name=Backyard path=/
//
// Advertisements are updated in place when the zone count or name changes.
package discovery
