// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

// AddRouter records a router. Repeated calls for the same router within the
// router freshness window are skipped, unless incConnectCount is set: a new
// BMP session is always written and bumps the router's connection count.
// A router without a name gets one by reverse DNS.
func (i *DBIngestor) AddRouter(r *model.Router, incConnectCount bool) error {
	key := r.Hash()
	if incConnectCount {
		i.routers.Mark(key)
	} else if !i.routers.CheckAndMark(key, i.cfg.Freshness.RouterWindow) {
		return nil
	}

	router := *r
	if router.Name == "" {
		router.Name = i.resolveName(router.IP)
	}
	connCount := 0
	if incConnectCount {
		connCount = 1
	}
	err := i.push(model.NewWriteRequest(model.OpUpsertRouter, key, router.UpsertRow(connCount)))
	if err != nil {
		// nothing was written, the next call must not be suppressed
		i.routers.Forget(key)
	}
	return err
}

// UpdateRouter rewrites the descriptive fields of a known router.
func (i *DBIngestor) UpdateRouter(r *model.Router) error {
	return i.push(model.NewWriteRequest(model.OpUpdateRouter, r.Hash(), r.UpdateRow()))
}

// DisconnectRouter marks a router and all of its peers down, recording the
// termination reason. The next AddRouter for it is written regardless of the
// freshness window.
func (i *DBIngestor) DisconnectRouter(r *model.Router) error {
	key := r.Hash()
	i.routers.Forget(key)
	return i.push(
		model.NewWriteRequest(model.OpDisconnectRouter, key, r.DisconnectRow()),
		model.NewWriteRequest(model.OpDisconnectRouterPeers, key, r.DisconnectPeersRow()),
	)
}
