// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

// AddPeer records a peer, skipping repeats within the peer freshness window.
func (i *DBIngestor) AddPeer(p *model.Peer) error {
	key := p.Hash()
	if !i.peers.CheckAndMark(key, i.cfg.Freshness.PeerWindow) {
		return nil
	}
	err := i.push(model.NewWriteRequest(model.OpUpsertPeer, key, p.UpsertRow()))
	if err != nil {
		i.peers.Forget(key)
	}
	return err
}

func (i *DBIngestor) UpdatePeer(p *model.Peer) error {
	return i.push(model.NewWriteRequest(model.OpUpdatePeer, p.Hash(), p.UpdateRow()))
}
