// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import (
	"net"
	"time"
)

// Router is a monitored router, one per BMP session source address.
type Router struct {
	IP          net.IP
	Instance    string // collector instance the session terminated on
	Name        string
	Description string
	InitData    string

	TermReasonCode int
	TermReasonText string
	TermData       string

	Timestamp time.Time
}

func (r *Router) Hash() Hash {
	return HashOf(r.IP, r.Instance)
}

// Peer is a BGP peer of a monitored router.
type Peer struct {
	RouterHash  Hash
	Addr        net.IP
	RD          string
	Name        string
	BgpID       net.IP
	AS          uint32
	IsL3VPN     bool
	IsPrePolicy bool
	IsIPv4      bool
	IsAdjRibIn  bool
	Timestamp   time.Time
}

func (p *Peer) Hash() Hash {
	return HashOf(p.Addr, p.RD, p.RouterHash)
}

// Rib is one routing table entry learned from a peer.
type Rib struct {
	PeerHash     Hash
	PathAttrHash Hash
	Prefix       *net.IPNet
	PathID       uint32
	Labels       string
	OriginAS     uint32
	IsPrePolicy  bool
	IsAdjRibIn   bool
	Timestamp    time.Time
}

func (r *Rib) Hash() Hash {
	return HashOf(r.Prefix, prefixLen(r.Prefix), r.PathID, r.Labels, r.PeerHash)
}

// PathAttr is the attribute set a route was announced with.
type PathAttr struct {
	PeerHash           Hash
	Origin             string
	AsPath             string
	AsPathCount        int
	OriginAS           uint32
	NextHop            net.IP
	Med                uint32
	LocalPref          uint32
	Aggregator         string
	CommunityList      string
	ExtCommunityList   string
	LargeCommunityList string
	ClusterList        string
	IsAtomicAgg        bool
	OriginatorID       net.IP
	Timestamp          time.Time
}

func (p *PathAttr) Hash() Hash {
	return HashOf(p.AsPath, p.NextHop, p.Aggregator, p.Origin, p.Med, p.LocalPref,
		p.CommunityList, p.ExtCommunityList, p.LargeCommunityList, p.PeerHash)
}

// AsPathAnalysis records one AS adjacency seen in an AS path.
type AsPathAnalysis struct {
	Asn          uint32
	AsnLeft      uint32
	AsnRight     uint32
	PathAttrHash Hash
	PeerHash     Hash
	Timestamp    time.Time
}

func (a *AsPathAnalysis) Hash() Hash {
	return HashOf(a.Asn, a.AsnLeft, a.AsnRight, a.PathAttrHash)
}

// StatReport is a BMP statistics report for a peer.
type StatReport struct {
	PeerHash            Hash
	PrefixesRejected    uint32
	KnownDupPrefixes    uint32
	KnownDupWithdraws   uint32
	InvalidClusterList  uint32
	InvalidAsPathLoop   uint32
	InvalidOriginatorID uint32
	InvalidAsConfedLoop uint32
	RoutesAdjRibIn      uint64
	RoutesLocalRib      uint64
	Timestamp           time.Time
}

func (s *StatReport) Hash() Hash {
	return HashOf(s.PeerHash, s.Timestamp.UnixNano())
}

// PeerDownEvent is a BMP peer down notification.
type PeerDownEvent struct {
	PeerHash      Hash
	BmpReason     int
	BgpErrCode    int
	BgpErrSubcode int
	ErrorText     string
	Timestamp     time.Time
}

func (e *PeerDownEvent) Hash() Hash {
	return HashOf(e.PeerHash, e.Timestamp.UnixNano())
}

// PeerUpEvent is a BMP peer up notification.
type PeerUpEvent struct {
	PeerHash         Hash
	LocalIP          net.IP
	LocalPort        uint16
	LocalBgpID       net.IP
	LocalAsn         uint32
	LocalHoldTime    uint16
	RemotePort       uint16
	RemoteBgpID      net.IP
	RemoteHoldTime   uint16
	SentCapabilities string
	RecvCapabilities string
	InfoData         string
	Timestamp        time.Time
}

func (e *PeerUpEvent) Hash() Hash {
	return HashOf(e.PeerHash, e.Timestamp.UnixNano())
}

// LsNode is a BGP-LS node descriptor.
type LsNode struct {
	PeerHash       Hash
	PathAttrHash   Hash
	Asn            uint32
	BgpLsID        uint32
	IgpRouterID    string
	OspfAreaID     string
	Protocol       string
	RouterID       net.IP
	IsisAreaID     string
	Flags          string
	Name           string
	MtIDs          string
	SrCapabilities string
	Timestamp      time.Time
}

func (n *LsNode) Hash() Hash {
	return HashOf(n.IgpRouterID, n.BgpLsID, n.Asn, n.OspfAreaID, n.PeerHash)
}

// LsLink is a BGP-LS link between two nodes.
type LsLink struct {
	PeerHash       Hash
	PathAttrHash   Hash
	LocalNodeHash  Hash
	RemoteNodeHash Hash
	MtID           uint32
	LocalLinkID    uint32
	RemoteLinkID   uint32
	InterfaceAddr  net.IP
	NeighborAddr   net.IP
	IgpMetric      uint32
	TeMetric       uint32
	AdminGroup     uint32
	MaxLinkBw      float32
	MaxResvBw      float32
	UnreservedBw   string
	Protocol       string
	Srlg           string
	Name           string
	Timestamp      time.Time
}

func (l *LsLink) Hash() Hash {
	return HashOf(l.InterfaceAddr, l.NeighborAddr, l.LocalLinkID, l.RemoteLinkID,
		l.LocalNodeHash, l.RemoteNodeHash, l.MtID, l.PeerHash)
}

// LsPrefix is a BGP-LS prefix advertised by a node.
type LsPrefix struct {
	PeerHash      Hash
	PathAttrHash  Hash
	LocalNodeHash Hash
	Prefix        *net.IPNet
	MtID          uint32
	Protocol      string
	RouteTag      uint32
	ExtRouteTag   uint64
	IgpFlags      string
	Metric        uint32
	OspfRouteType string
	Timestamp     time.Time
}

func (p *LsPrefix) Hash() Hash {
	return HashOf(p.Prefix, prefixLen(p.Prefix), p.LocalNodeHash, p.MtID, p.OspfRouteType, p.PeerHash)
}
