// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import "time"

// The Row builders below return values in the column order of the matching
// opcode in opcodes.go.

// UpsertRow is the OpUpsertRouter row. connCount is added to the stored
// connection count.
func (r *Router) UpsertRow(connCount int) []interface{} {
	return []interface{}{r.Hash().Arg(), r.Name, ipArg(r.IP), r.Description, r.InitData, connCount, ts(r.Timestamp)}
}

func (r *Router) UpdateRow() []interface{} {
	return []interface{}{r.Hash().Arg(), r.Name, r.Description, r.InitData, ts(r.Timestamp)}
}

func (r *Router) DisconnectRow() []interface{} {
	return []interface{}{r.Hash().Arg(), r.TermReasonCode, r.TermReasonText, r.TermData, ts(r.Timestamp)}
}

// DisconnectPeersRow marks every connected peer of the router down.
func (r *Router) DisconnectPeersRow() []interface{} {
	return []interface{}{r.Hash().Arg(), ts(r.Timestamp)}
}

func (p *Peer) UpsertRow() []interface{} {
	return []interface{}{p.Hash().Arg(), p.RouterHash.Arg(), p.RD, ipArg(p.Addr), p.Name, ipArg(p.BgpID),
		int64(p.AS), p.IsL3VPN, p.IsPrePolicy, p.IsIPv4, p.IsAdjRibIn, ts(p.Timestamp)}
}

func (p *Peer) UpdateRow() []interface{} {
	return []interface{}{p.Hash().Arg(), p.Name, ipArg(p.BgpID), int64(p.AS), ts(p.Timestamp)}
}

func (p *Peer) StateRow(up bool) []interface{} {
	return PeerStateRow(p.Hash(), up, p.Timestamp)
}

// PeerStateRow is the OpSetPeerState row for the peer with hash peer.
func PeerStateRow(peer Hash, up bool, t time.Time) []interface{} {
	return []interface{}{peer.Arg(), up, ts(t)}
}

// PeerRibWithdrawRow is the OpWithdrawPeerRib row withdrawing all routes of
// the peer with hash peer.
func PeerRibWithdrawRow(peer Hash, t time.Time) []interface{} {
	return []interface{}{peer.Arg(), ts(t)}
}

func (r *Rib) Row() []interface{} {
	return []interface{}{r.Hash().Arg(), r.PathAttrHash.Arg(), r.PeerHash.Arg(), prefixArg(r.Prefix),
		prefixLen(r.Prefix), int64(r.PathID), r.Labels, int64(r.OriginAS), r.IsPrePolicy, r.IsAdjRibIn,
		ts(r.Timestamp)}
}

func (r *Rib) WithdrawRow() []interface{} {
	return []interface{}{r.Hash().Arg(), ts(r.Timestamp)}
}

func (p *PathAttr) Row() []interface{} {
	return []interface{}{p.Hash().Arg(), p.PeerHash.Arg(), p.Origin, p.AsPath, p.AsPathCount, int64(p.OriginAS),
		ipArg(p.NextHop), int64(p.Med), int64(p.LocalPref), p.Aggregator, p.CommunityList, p.ExtCommunityList,
		p.LargeCommunityList, p.ClusterList, p.IsAtomicAgg, ipArg(p.OriginatorID), ts(p.Timestamp)}
}

func (a *AsPathAnalysis) Row() []interface{} {
	return []interface{}{a.Hash().Arg(), int64(a.Asn), int64(a.AsnLeft), int64(a.AsnRight),
		a.PathAttrHash.Arg(), a.PeerHash.Arg(), ts(a.Timestamp)}
}

func (s *StatReport) Row() []interface{} {
	return []interface{}{s.Hash().Arg(), s.PeerHash.Arg(), int64(s.PrefixesRejected), int64(s.KnownDupPrefixes),
		int64(s.KnownDupWithdraws), int64(s.InvalidClusterList), int64(s.InvalidAsPathLoop),
		int64(s.InvalidOriginatorID), int64(s.InvalidAsConfedLoop), int64(s.RoutesAdjRibIn),
		int64(s.RoutesLocalRib), ts(s.Timestamp)}
}

func (e *PeerDownEvent) Row() []interface{} {
	return []interface{}{e.Hash().Arg(), e.PeerHash.Arg(), e.BmpReason, e.BgpErrCode, e.BgpErrSubcode,
		e.ErrorText, ts(e.Timestamp)}
}

func (e *PeerUpEvent) Row() []interface{} {
	return []interface{}{e.Hash().Arg(), e.PeerHash.Arg(), ipArg(e.LocalIP), int(e.LocalPort),
		ipArg(e.LocalBgpID), int64(e.LocalAsn), int(e.LocalHoldTime), int(e.RemotePort), ipArg(e.RemoteBgpID),
		int(e.RemoteHoldTime), e.SentCapabilities, e.RecvCapabilities, e.InfoData, ts(e.Timestamp)}
}

func (n *LsNode) Row() []interface{} {
	return []interface{}{n.Hash().Arg(), n.PeerHash.Arg(), n.PathAttrHash.Arg(), int64(n.Asn), int64(n.BgpLsID),
		n.IgpRouterID, n.OspfAreaID, n.Protocol, ipArg(n.RouterID), n.IsisAreaID, n.Flags, n.Name, n.MtIDs,
		n.SrCapabilities, ts(n.Timestamp)}
}

func (n *LsNode) DelRow() []interface{} {
	return []interface{}{n.Hash().Arg(), ts(n.Timestamp)}
}

func (l *LsLink) Row() []interface{} {
	return []interface{}{l.Hash().Arg(), l.PeerHash.Arg(), l.PathAttrHash.Arg(), l.LocalNodeHash.Arg(),
		l.RemoteNodeHash.Arg(), int64(l.MtID), int64(l.LocalLinkID), int64(l.RemoteLinkID),
		ipArg(l.InterfaceAddr), ipArg(l.NeighborAddr), int64(l.IgpMetric), int64(l.TeMetric),
		int64(l.AdminGroup), l.MaxLinkBw, l.MaxResvBw, l.UnreservedBw, l.Protocol, l.Srlg, l.Name,
		ts(l.Timestamp)}
}

func (l *LsLink) DelRow() []interface{} {
	return []interface{}{l.Hash().Arg(), ts(l.Timestamp)}
}

func (p *LsPrefix) Row() []interface{} {
	return []interface{}{p.Hash().Arg(), p.PeerHash.Arg(), p.PathAttrHash.Arg(), p.LocalNodeHash.Arg(),
		prefixArg(p.Prefix), prefixLen(p.Prefix), int64(p.MtID), p.Protocol, int64(p.RouteTag),
		int64(p.ExtRouteTag), p.IgpFlags, int64(p.Metric), p.OspfRouteType, ts(p.Timestamp)}
}

func (p *LsPrefix) DelRow() []interface{} {
	return []interface{}{p.Hash().Arg(), ts(p.Timestamp)}
}
