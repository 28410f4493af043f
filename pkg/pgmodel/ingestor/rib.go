// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

func (i *DBIngestor) AddRib(ribs []model.Rib) error {
	return i.pushRows(model.OpAddRib, len(ribs), func(j int) (model.Hash, []interface{}) {
		return ribs[j].Hash(), ribs[j].Row()
	})
}

// DeleteRib marks the given routes withdrawn.
func (i *DBIngestor) DeleteRib(ribs []model.Rib) error {
	return i.pushRows(model.OpWithdrawRib, len(ribs), func(j int) (model.Hash, []interface{}) {
		return ribs[j].Hash(), ribs[j].WithdrawRow()
	})
}

func (i *DBIngestor) AddPathAttrs(attr *model.PathAttr) error {
	return i.push(model.NewWriteRequest(model.OpAddPathAttr, attr.Hash(), attr.Row()))
}

func (i *DBIngestor) AddAsPathAnalysis(records []model.AsPathAnalysis) error {
	return i.pushRows(model.OpAddAsPathAnalysis, len(records), func(j int) (model.Hash, []interface{}) {
		return records[j].Hash(), records[j].Row()
	})
}
