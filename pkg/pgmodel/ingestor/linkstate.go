// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

func (i *DBIngestor) AddLsNodes(nodes []model.LsNode) error {
	return i.pushRows(model.OpAddLsNode, len(nodes), func(j int) (model.Hash, []interface{}) {
		return nodes[j].Hash(), nodes[j].Row()
	})
}

func (i *DBIngestor) DelLsNodes(nodes []model.LsNode) error {
	return i.pushRows(model.OpDelLsNode, len(nodes), func(j int) (model.Hash, []interface{}) {
		return nodes[j].Hash(), nodes[j].DelRow()
	})
}

func (i *DBIngestor) AddLsLinks(links []model.LsLink) error {
	return i.pushRows(model.OpAddLsLink, len(links), func(j int) (model.Hash, []interface{}) {
		return links[j].Hash(), links[j].Row()
	})
}

func (i *DBIngestor) DelLsLinks(links []model.LsLink) error {
	return i.pushRows(model.OpDelLsLink, len(links), func(j int) (model.Hash, []interface{}) {
		return links[j].Hash(), links[j].DelRow()
	})
}

func (i *DBIngestor) AddLsPrefixes(prefixes []model.LsPrefix) error {
	return i.pushRows(model.OpAddLsPrefix, len(prefixes), func(j int) (model.Hash, []interface{}) {
		return prefixes[j].Hash(), prefixes[j].Row()
	})
}

func (i *DBIngestor) DelLsPrefixes(prefixes []model.LsPrefix) error {
	return i.pushRows(model.OpDelLsPrefix, len(prefixes), func(j int) (model.Hash, []interface{}) {
		return prefixes[j].Hash(), prefixes[j].DelRow()
	})
}

// pushRows enqueues one request with n rows produced by row. Nothing is
// enqueued for n == 0.
func (i *DBIngestor) pushRows(op model.Opcode, n int, row func(j int) (model.Hash, []interface{})) error {
	if n == 0 {
		return nil
	}
	req := &model.WriteRequest{Op: op, Rows: make([][]interface{}, 0, n), Keys: make([]model.Hash, 0, n)}
	for j := 0; j < n; j++ {
		req.Append(row(j))
	}
	return i.push(req)
}
