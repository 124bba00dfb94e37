// Package regions maps Riot platform codes and routing regions to API base URLs.
// A platform code (na1, euw1, kr, ...) addresses a single game server; a routing
// region (americas, asia, europe, sea) groups platforms for the match-v5 family
// of endpoints. Lookups for unknown codes fail closed: there is no default
// region, because silently rerouting a request would return data for the wrong
// shard.
package regions

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRegion is returned when a code is neither a known platform
// nor a known routing region.
var ErrUnsupportedRegion = errors.New("unsupported region")

// Routing region labels used by the match-v5 endpoint family.
const (
	RoutingAmericas = "americas"
	RoutingAsia     = "asia"
	RoutingEurope   = "europe"
	RoutingSEA      = "sea"
)

// Region describes one platform shard: its routing group and the two hosts
// requests for it can be sent to.
type Region struct {
	// Routing is the routing-region label the platform belongs to.
	Routing string

	// PlatformURL is the direct platform endpoint (summoner, league, ...).
	PlatformURL string

	// RoutingURL is the routing-region endpoint (match-v5, account-v1, ...).
	RoutingURL string
}

func region(platform, routing string) Region {
	return Region{
		Routing:     routing,
		PlatformURL: fmt.Sprintf("https://%s.api.riotgames.com", platform),
		RoutingURL:  fmt.Sprintf("https://%s.api.riotgames.com", routing),
	}
}

// platforms is the static platform table. Every supported code maps to
// exactly one Region.
var platforms = map[string]Region{
	"br1":  region("br1", RoutingAmericas),
	"la1":  region("la1", RoutingAmericas),
	"la2":  region("la2", RoutingAmericas),
	"na1":  region("na1", RoutingAmericas),
	"jp1":  region("jp1", RoutingAsia),
	"kr":   region("kr", RoutingAsia),
	"eun1": region("eun1", RoutingEurope),
	"euw1": region("euw1", RoutingEurope),
	"ru":   region("ru", RoutingEurope),
	"tr1":  region("tr1", RoutingEurope),
	"oc1":  region("oc1", RoutingSEA),
	"ph2":  region("ph2", RoutingSEA),
	"sg2":  region("sg2", RoutingSEA),
	"th2":  region("th2", RoutingSEA),
	"tw2":  region("tw2", RoutingSEA),
	"vn2":  region("vn2", RoutingSEA),
}

// routingURLs maps routing-region labels to their endpoints, so that callers
// already holding a routing label can pass it straight through.
var routingURLs = map[string]string{
	RoutingAmericas: "https://americas.api.riotgames.com",
	RoutingAsia:     "https://asia.api.riotgames.com",
	RoutingEurope:   "https://europe.api.riotgames.com",
	RoutingSEA:      "https://sea.api.riotgames.com",
}

// BaseURL resolves a region code to the base URL requests should be sent to.
//
// With wantsRoutingRegion=false the code must be a platform code and the
// platform endpoint is returned. With wantsRoutingRegion=true the code may be
// either a routing label (returned as-is) or a platform code (resolved to its
// routing group's endpoint).
func BaseURL(code string, wantsRoutingRegion bool) (string, error) {
	if wantsRoutingRegion {
		if url, ok := routingURLs[code]; ok {
			return url, nil
		}
		if r, ok := platforms[code]; ok {
			return r.RoutingURL, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRegion, code)
	}

	r, ok := platforms[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRegion, code)
	}
	return r.PlatformURL, nil
}

// Routing returns the routing-region label for a platform code, or the code
// itself if it already is a routing label. Used to partition the processed
// ledger the same way match data is partitioned upstream.
func Routing(code string) (string, error) {
	if _, ok := routingURLs[code]; ok {
		return code, nil
	}
	if r, ok := platforms[code]; ok {
		return r.Routing, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRegion, code)
}

// IsPlatform reports whether code is a known platform code.
func IsPlatform(code string) bool {
	_, ok := platforms[code]
	return ok
}
