// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgtype"
)

// HashSize is the width of an entity hash in bytes.
const HashSize = md5.Size

// Hash identifies an entity by the MD5 digest of its identifying fields. It is
// the hash_id primary key of every table and the freshness cache key.
type Hash [HashSize]byte

// ZeroHash is the hash of nothing, used for missing references.
var ZeroHash Hash

// HashOf digests the given parts in order. Parts are separated so that
// ("ab", "c") and ("a", "bc") never collide.
func HashOf(parts ...interface{}) Hash {
	h := md5.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		switch v := p.(type) {
		case Hash:
			_, _ = h.Write(v[:])
		case net.IP:
			_, _ = h.Write([]byte(v.String()))
		case *net.IPNet:
			if v != nil {
				_, _ = h.Write([]byte(v.String()))
			}
		default:
			_, _ = fmt.Fprint(h, v)
		}
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Arg returns the value bound for a uuid hash_id column.
func (h Hash) Arg() [HashSize]byte {
	return [HashSize]byte(h)
}

// ipArg converts ip into an inet value, NULL when ip is nil.
func ipArg(ip net.IP) pgtype.Inet {
	if ip == nil {
		return pgtype.Inet{Status: pgtype.Null}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return pgtype.Inet{
		IPNet:  &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Status: pgtype.Present,
	}
}

// prefixArg converts a prefix into an inet value, NULL when prefix is nil.
func prefixArg(prefix *net.IPNet) pgtype.Inet {
	if prefix == nil {
		return pgtype.Inet{Status: pgtype.Null}
	}
	return pgtype.Inet{IPNet: prefix, Status: pgtype.Present}
}

// prefixLen returns the mask length of prefix, 0 for nil.
func prefixLen(prefix *net.IPNet) int {
	if prefix == nil {
		return 0
	}
	ones, _ := prefix.Mask.Size()
	return ones
}

func ts(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
