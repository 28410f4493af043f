// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package schema

// Tables written by the ingestor. They are resolved through the connection's
// search_path, see pgclient.Config.Schema.
const (
	Routers        = "routers"
	Peers          = "bgp_peers"
	Rib            = "rib"
	PathAttrs      = "path_attrs"
	AsPathAnalysis = "as_path_analysis"
	StatReports    = "stat_reports"
	PeerDownEvents = "peer_down_events"
	PeerUpEvents   = "peer_up_events"
	LsNodes        = "ls_nodes"
	LsLinks        = "ls_links"
	LsPrefixes     = "ls_prefixes"

	// DefaultSchema is used when no schema is configured.
	DefaultSchema = "openbmp"
)
