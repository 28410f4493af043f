// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routewatch/bmpstore/pkg/pgmodel/common/schema"
)

// Kind is the ordering policy of an opcode.
type Kind uint8

const (
	// Mergeable rows are order independent facts; requests of the same
	// opcode may be concatenated into one multi-row statement.
	Mergeable Kind = iota
	// Sequential requests run in exact enqueue order, each as its own
	// statement, and are never merged across.
	Sequential
)

func (k Kind) String() string {
	if k == Mergeable {
		return "mergeable"
	}
	return "sequential"
}

// Opcode identifies the operation class of a WriteRequest.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	OpAddRib
	OpAddPathAttr
	OpAddAsPathAnalysis
	OpAddStatReport
	OpAddPeerDownEvent
	OpAddPeerUpEvent
	OpAddLsNode
	OpAddLsLink
	OpAddLsPrefix

	OpUpsertRouter
	OpUpdateRouter
	OpDisconnectRouter
	OpDisconnectRouterPeers
	OpUpsertPeer
	OpUpdatePeer
	OpSetPeerState
	OpWithdrawRib
	OpWithdrawPeerRib
	OpDelLsNode
	OpDelLsLink
	OpDelLsPrefix

	// OpBeginGroup and OpCommitGroup delimit an explicit transaction that
	// may span several batches.
	OpBeginGroup
	OpCommitGroup

	numOpcodes
)

// OpSpec describes how the rows of an opcode become SQL.
type OpSpec struct {
	Name    string
	Kind    Kind
	Table   string
	Columns []string
	// Casts, when set, holds one SQL type per column. Placeholders are cast
	// so that a free standing VALUES list has typed columns.
	Casts []string
	// Template holds a single %s, replaced by the VALUES row list.
	Template string
	// Control opcodes carry no rows and produce no SQL.
	Control bool
}

var specs [numOpcodes]*OpSpec

// Spec returns the spec of op, nil for an unknown opcode.
func (op Opcode) Spec() *OpSpec {
	if op >= numOpcodes {
		return nil
	}
	return specs[op]
}

// Kind returns the ordering policy of op. Unknown opcodes are sequential.
func (op Opcode) Kind() Kind {
	s := op.Spec()
	if s == nil {
		return Sequential
	}
	return s.Kind
}

func (op Opcode) String() string {
	s := op.Spec()
	if s == nil {
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
	return s.Name
}

// SQL renders the statement for numRows rows, numbering placeholders from $1.
func (s *OpSpec) SQL(numRows int) string {
	var sb strings.Builder
	numCols := len(s.Columns)
	param := 1
	for r := 0; r < numRows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < numCols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(param))
			if s.Casts != nil {
				sb.WriteString("::")
				sb.WriteString(s.Casts[c])
			}
			param++
		}
		sb.WriteByte(')')
	}
	return fmt.Sprintf(s.Template, sb.String())
}

func upsert(table string, columns []string, conflict string) string {
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES %s ON CONFLICT " + conflict
}

func updateFrom(table string, columns []string, set, where string) string {
	return "UPDATE " + table + " AS t SET " + set + " FROM (VALUES %s) AS v(" + strings.Join(columns, ", ") + ") WHERE " + where
}

func register(op Opcode, spec *OpSpec) {
	if spec.Casts != nil && len(spec.Casts) != len(spec.Columns) {
		panic(fmt.Sprintf("opcode %s: %d casts for %d columns", spec.Name, len(spec.Casts), len(spec.Columns)))
	}
	specs[op] = spec
}

var (
	ribColumns = []string{"hash_id", "path_attr_hash_id", "peer_hash_id", "prefix", "prefix_len",
		"path_id", "labels", "origin_as", "is_prepolicy", "is_adj_rib_in", "timestamp"}
	pathAttrColumns = []string{"hash_id", "peer_hash_id", "origin", "as_path", "as_path_count", "origin_as",
		"next_hop", "med", "local_pref", "aggregator", "community_list", "ext_community_list",
		"large_community_list", "cluster_list", "is_atomic_agg", "originator_id", "timestamp"}
	asPathAnalysisColumns = []string{"hash_id", "asn", "asn_left", "asn_right", "path_attr_hash_id",
		"peer_hash_id", "timestamp"}
	statReportColumns = []string{"hash_id", "peer_hash_id", "prefixes_rejected", "known_dup_prefixes",
		"known_dup_withdraws", "invalid_cluster_list", "invalid_as_path_loop", "invalid_originator_id",
		"invalid_as_confed_loop", "routes_adj_rib_in", "routes_local_rib", "timestamp"}
	peerDownColumns = []string{"hash_id", "peer_hash_id", "bmp_reason", "bgp_err_code", "bgp_err_subcode",
		"error_text", "timestamp"}
	peerUpColumns = []string{"hash_id", "peer_hash_id", "local_ip", "local_port", "local_bgp_id",
		"local_asn", "local_hold_time", "remote_port", "remote_bgp_id", "remote_hold_time",
		"sent_capabilities", "recv_capabilities", "info_data", "timestamp"}
	lsNodeColumns = []string{"hash_id", "peer_hash_id", "path_attr_hash_id", "asn", "bgp_ls_id",
		"igp_router_id", "ospf_area_id", "protocol", "router_id", "isis_area_id", "flags", "name",
		"mt_ids", "sr_capabilities", "timestamp"}
	lsLinkColumns = []string{"hash_id", "peer_hash_id", "path_attr_hash_id", "local_node_hash_id",
		"remote_node_hash_id", "mt_id", "local_link_id", "remote_link_id", "interface_addr",
		"neighbor_addr", "igp_metric", "te_metric", "admin_group", "max_link_bw", "max_resv_bw",
		"unreserved_bw", "protocol", "srlg", "name", "timestamp"}
	lsPrefixColumns = []string{"hash_id", "peer_hash_id", "path_attr_hash_id", "local_node_hash_id",
		"prefix", "prefix_len", "mt_id", "protocol", "route_tag", "ext_route_tag", "igp_flags",
		"metric", "ospf_route_type", "timestamp"}
	routerColumns = []string{"hash_id", "name", "ip_address", "description", "init_data",
		"conn_count", "timestamp"}
	peerColumns = []string{"hash_id", "router_hash_id", "peer_rd", "peer_addr", "name", "peer_bgp_id",
		"peer_as", "is_l3vpn", "is_prepolicy", "is_ipv4", "is_adj_rib_in", "timestamp"}

	withdrawColumns = []string{"hash_id", "timestamp"}
	withdrawCasts   = []string{"uuid", "timestamptz"}
	withdrawSet     = "is_withdrawn = true, timestamp = v.timestamp"
	byHash          = "t.hash_id = v.hash_id"
)

func init() {
	register(OpAddRib, &OpSpec{
		Name: "add_rib", Kind: Mergeable, Table: schema.Rib, Columns: ribColumns,
		Template: upsert(schema.Rib, ribColumns, "(hash_id) DO UPDATE SET path_attr_hash_id = excluded.path_attr_hash_id, "+
			"origin_as = excluded.origin_as, is_withdrawn = false, timestamp = excluded.timestamp"),
	})
	register(OpAddPathAttr, &OpSpec{
		Name: "add_path_attr", Kind: Mergeable, Table: schema.PathAttrs, Columns: pathAttrColumns,
		Template: upsert(schema.PathAttrs, pathAttrColumns, "(hash_id) DO UPDATE SET timestamp = excluded.timestamp"),
	})
	register(OpAddAsPathAnalysis, &OpSpec{
		Name: "add_as_path_analysis", Kind: Mergeable, Table: schema.AsPathAnalysis, Columns: asPathAnalysisColumns,
		Template: upsert(schema.AsPathAnalysis, asPathAnalysisColumns, "(hash_id) DO UPDATE SET timestamp = excluded.timestamp"),
	})
	register(OpAddStatReport, &OpSpec{
		Name: "add_stat_report", Kind: Mergeable, Table: schema.StatReports, Columns: statReportColumns,
		Template: upsert(schema.StatReports, statReportColumns, "DO NOTHING"),
	})
	register(OpAddPeerDownEvent, &OpSpec{
		Name: "add_peer_down_event", Kind: Mergeable, Table: schema.PeerDownEvents, Columns: peerDownColumns,
		Template: upsert(schema.PeerDownEvents, peerDownColumns, "DO NOTHING"),
	})
	register(OpAddPeerUpEvent, &OpSpec{
		Name: "add_peer_up_event", Kind: Mergeable, Table: schema.PeerUpEvents, Columns: peerUpColumns,
		Template: upsert(schema.PeerUpEvents, peerUpColumns, "DO NOTHING"),
	})
	register(OpAddLsNode, &OpSpec{
		Name: "add_ls_node", Kind: Mergeable, Table: schema.LsNodes, Columns: lsNodeColumns,
		Template: upsert(schema.LsNodes, lsNodeColumns, "(hash_id) DO UPDATE SET path_attr_hash_id = excluded.path_attr_hash_id, "+
			"name = excluded.name, flags = excluded.flags, sr_capabilities = excluded.sr_capabilities, "+
			"is_withdrawn = false, timestamp = excluded.timestamp"),
	})
	register(OpAddLsLink, &OpSpec{
		Name: "add_ls_link", Kind: Mergeable, Table: schema.LsLinks, Columns: lsLinkColumns,
		Template: upsert(schema.LsLinks, lsLinkColumns, "(hash_id) DO UPDATE SET path_attr_hash_id = excluded.path_attr_hash_id, "+
			"igp_metric = excluded.igp_metric, te_metric = excluded.te_metric, admin_group = excluded.admin_group, "+
			"max_link_bw = excluded.max_link_bw, max_resv_bw = excluded.max_resv_bw, unreserved_bw = excluded.unreserved_bw, "+
			"is_withdrawn = false, timestamp = excluded.timestamp"),
	})
	register(OpAddLsPrefix, &OpSpec{
		Name: "add_ls_prefix", Kind: Mergeable, Table: schema.LsPrefixes, Columns: lsPrefixColumns,
		Template: upsert(schema.LsPrefixes, lsPrefixColumns, "(hash_id) DO UPDATE SET path_attr_hash_id = excluded.path_attr_hash_id, "+
			"metric = excluded.metric, igp_flags = excluded.igp_flags, route_tag = excluded.route_tag, "+
			"ext_route_tag = excluded.ext_route_tag, is_withdrawn = false, timestamp = excluded.timestamp"),
	})

	register(OpUpsertRouter, &OpSpec{
		Name: "upsert_router", Kind: Sequential, Table: schema.Routers, Columns: routerColumns,
		Template: upsert(schema.Routers, routerColumns, "(hash_id) DO UPDATE SET name = excluded.name, "+
			"description = excluded.description, init_data = excluded.init_data, is_connected = true, "+
			"conn_count = "+schema.Routers+".conn_count + excluded.conn_count, timestamp = excluded.timestamp"),
	})
	register(OpUpdateRouter, &OpSpec{
		Name: "update_router", Kind: Sequential, Table: schema.Routers,
		Columns: []string{"hash_id", "name", "description", "init_data", "timestamp"},
		Casts:   []string{"uuid", "text", "text", "text", "timestamptz"},
		Template: updateFrom(schema.Routers, []string{"hash_id", "name", "description", "init_data", "timestamp"},
			"name = v.name, description = v.description, init_data = v.init_data, timestamp = v.timestamp", byHash),
	})
	register(OpDisconnectRouter, &OpSpec{
		Name: "disconnect_router", Kind: Sequential, Table: schema.Routers,
		Columns: []string{"hash_id", "term_reason_code", "term_reason_text", "term_data", "timestamp"},
		Casts:   []string{"uuid", "integer", "text", "text", "timestamptz"},
		Template: updateFrom(schema.Routers, []string{"hash_id", "term_reason_code", "term_reason_text", "term_data", "timestamp"},
			"is_connected = false, term_reason_code = v.term_reason_code, term_reason_text = v.term_reason_text, "+
				"term_data = v.term_data, timestamp = v.timestamp", byHash),
	})
	register(OpDisconnectRouterPeers, &OpSpec{
		Name: "disconnect_router_peers", Kind: Sequential, Table: schema.Peers,
		Columns: []string{"router_hash_id", "timestamp"},
		Casts:   []string{"uuid", "timestamptz"},
		Template: updateFrom(schema.Peers, []string{"router_hash_id", "timestamp"},
			"state = false, timestamp = v.timestamp", "t.router_hash_id = v.router_hash_id AND t.state"),
	})
	register(OpUpsertPeer, &OpSpec{
		Name: "upsert_peer", Kind: Sequential, Table: schema.Peers, Columns: peerColumns,
		Template: upsert(schema.Peers, peerColumns, "(hash_id) DO UPDATE SET name = excluded.name, "+
			"peer_bgp_id = excluded.peer_bgp_id, peer_as = excluded.peer_as, state = true, timestamp = excluded.timestamp"),
	})
	register(OpUpdatePeer, &OpSpec{
		Name: "update_peer", Kind: Sequential, Table: schema.Peers,
		Columns: []string{"hash_id", "name", "peer_bgp_id", "peer_as", "timestamp"},
		Casts:   []string{"uuid", "text", "inet", "bigint", "timestamptz"},
		Template: updateFrom(schema.Peers, []string{"hash_id", "name", "peer_bgp_id", "peer_as", "timestamp"},
			"name = v.name, peer_bgp_id = v.peer_bgp_id, peer_as = v.peer_as, timestamp = v.timestamp", byHash),
	})
	register(OpSetPeerState, &OpSpec{
		Name: "set_peer_state", Kind: Sequential, Table: schema.Peers,
		Columns: []string{"hash_id", "state", "timestamp"},
		Casts:   []string{"uuid", "boolean", "timestamptz"},
		Template: updateFrom(schema.Peers, []string{"hash_id", "state", "timestamp"},
			"state = v.state, timestamp = v.timestamp", byHash),
	})
	register(OpWithdrawRib, &OpSpec{
		Name: "withdraw_rib", Kind: Sequential, Table: schema.Rib,
		Columns: withdrawColumns, Casts: withdrawCasts,
		Template: updateFrom(schema.Rib, withdrawColumns, withdrawSet, byHash),
	})
	register(OpWithdrawPeerRib, &OpSpec{
		Name: "withdraw_peer_rib", Kind: Sequential, Table: schema.Rib,
		Columns: []string{"peer_hash_id", "timestamp"},
		Casts:   withdrawCasts,
		Template: updateFrom(schema.Rib, []string{"peer_hash_id", "timestamp"}, withdrawSet,
			"t.peer_hash_id = v.peer_hash_id AND NOT t.is_withdrawn"),
	})
	register(OpDelLsNode, &OpSpec{
		Name: "del_ls_node", Kind: Sequential, Table: schema.LsNodes,
		Columns: withdrawColumns, Casts: withdrawCasts,
		Template: updateFrom(schema.LsNodes, withdrawColumns, withdrawSet, byHash),
	})
	register(OpDelLsLink, &OpSpec{
		Name: "del_ls_link", Kind: Sequential, Table: schema.LsLinks,
		Columns: withdrawColumns, Casts: withdrawCasts,
		Template: updateFrom(schema.LsLinks, withdrawColumns, withdrawSet, byHash),
	})
	register(OpDelLsPrefix, &OpSpec{
		Name: "del_ls_prefix", Kind: Sequential, Table: schema.LsPrefixes,
		Columns: withdrawColumns, Casts: withdrawCasts,
		Template: updateFrom(schema.LsPrefixes, withdrawColumns, withdrawSet, byHash),
	})

	register(OpBeginGroup, &OpSpec{Name: "begin_group", Kind: Sequential, Control: true})
	register(OpCommitGroup, &OpSpec{Name: "commit_group", Kind: Sequential, Control: true})
}
