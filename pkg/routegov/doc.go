// Package routegov governs access to a metered routing and geocoding API.
//
// A Governor sits in front of the remote provider and decides, for every
// request, whether the provider may be called at all. It combines a
// time-bounded response cache, a daily usage ledger with a hard quota, and
// a tier-based entitlement resolver. When the provider cannot or may not
// be used, route calculation degrades to a straight-line estimate.
//
// # Quick Start
//
// A governor with the default configuration has no provider key, so
// every route comes back as an estimate:
//
//	gov, err := routegov.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gov.Close()
//
//	route := gov.CalculateRoute(ctx, []routegov.LatLng{
//	    {Lat: 40.7128, Lng: -74.0060},
//	    {Lat: 34.0522, Lng: -118.2437},
//	}, "alice@example.com")
//	fmt.Println(route.DistanceKm, route.Source)
//
// # Configuration
//
// State persists in a SQLite file, routegov.db in the working directory
// by default, behind a short-lived bigcache read cache. TestConfig keeps
// state in memory instead. Start from Config and adjust before building:
//
//	cfg := routegov.Config()
//	cfg.Provider.APIKey = routegov.NewSecretString(os.Getenv("ORS_API_KEY"))
//	cfg.Storage.SQLite.Path = "/var/lib/routegov/state.db"
//	gov, err := routegov.NewFromConfig(cfg)
//
// NewFromFile loads JSON or YAML and applies ROUTEGOV_* environment
// overrides on top.
//
// # Request Flow
//
// Directions and Geocode pass through the same sequence:
//
//  1. A fresh cached response is returned without touching the quota.
//  2. An unconfigured provider yields no result.
//  3. A spent daily quota yields no result.
//  4. Otherwise the provider is called behind a bulkhead and a circuit
//     breaker. Identical concurrent misses share one call.
//
// Every request appends exactly one record to the usage ledger. Absent
// outcomes (unconfigured, quota spent, rejected key, rate limited, no
// match) return a nil result and a nil error; only transient failures
// are returned as errors.
//
// CalculateRoute and GeocodeAddress additionally consult the caller's
// tier and never return an error.
//
// # Tiers
//
// Users resolve to one of free, basic, advanced, expert or test. The test
// tier override, a stored membership, and the configured test identities
// are consulted in that order. Feature overrides force a feature on or
// off for everyone and apply before the tier table.
//
// # Observability
//
// Components log through log/slog. Inject a logger with WithSlogLogger, or
// bridge your own with WithLogger. Metrics go to an in-process tracker
// (see Governor.Metrics) and, when enabled, to DataDog.
package routegov
