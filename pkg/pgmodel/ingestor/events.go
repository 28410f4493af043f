// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

func (i *DBIngestor) AddStatReport(report *model.StatReport) error {
	return i.push(model.NewWriteRequest(model.OpAddStatReport, report.Hash(), report.Row()))
}

// AddPeerDownEvent records the event, marks the peer down and withdraws
// every route learned from it. The next AddPeer for it is written regardless
// of the freshness window.
func (i *DBIngestor) AddPeerDownEvent(event *model.PeerDownEvent) error {
	i.peers.Forget(event.PeerHash)
	return i.push(
		model.NewWriteRequest(model.OpAddPeerDownEvent, event.Hash(), event.Row()),
		model.NewWriteRequest(model.OpSetPeerState, event.PeerHash, model.PeerStateRow(event.PeerHash, false, event.Timestamp)),
		model.NewWriteRequest(model.OpWithdrawPeerRib, event.PeerHash, model.PeerRibWithdrawRow(event.PeerHash, event.Timestamp)),
	)
}

// AddPeerUpEvent records the event and marks the peer up.
func (i *DBIngestor) AddPeerUpEvent(event *model.PeerUpEvent) error {
	return i.push(
		model.NewWriteRequest(model.OpAddPeerUpEvent, event.Hash(), event.Row()),
		model.NewWriteRequest(model.OpSetPeerState, event.PeerHash, model.PeerStateRow(event.PeerHash, true, event.Timestamp)),
	)
}
