// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import "github.com/routewatch/bmpstore/pkg/pgmodel/model"

// DBInserter is the persistence surface used by the BMP collector. Every
// method only enqueues; the writes reach the database asynchronously. A
// returned error means the write was not enqueued and has been logged.
type DBInserter interface {
	AddRouter(r *model.Router, incConnectCount bool) error
	UpdateRouter(r *model.Router) error
	DisconnectRouter(r *model.Router) error

	AddPeer(p *model.Peer) error
	UpdatePeer(p *model.Peer) error

	AddRib(ribs []model.Rib) error
	DeleteRib(ribs []model.Rib) error
	AddPathAttrs(attr *model.PathAttr) error
	AddAsPathAnalysis(records []model.AsPathAnalysis) error

	AddStatReport(report *model.StatReport) error
	AddPeerDownEvent(event *model.PeerDownEvent) error
	AddPeerUpEvent(event *model.PeerUpEvent) error

	AddLsNodes(nodes []model.LsNode) error
	DelLsNodes(nodes []model.LsNode) error
	AddLsLinks(links []model.LsLink) error
	DelLsLinks(links []model.LsLink) error
	AddLsPrefixes(prefixes []model.LsPrefix) error
	DelLsPrefixes(prefixes []model.LsPrefix) error

	StartTransaction() error
	CommitTransaction() error

	EnableDebug()
	DisableDebug()
	Close()
}
