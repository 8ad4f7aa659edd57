// Package addrutil 提供地址分类工具
package addrutil

import "net/netip"

// ============================================================================
//                              IP 类型判断工具
// ============================================================================

// Scope 地址范围
type Scope string

const (
	// ScopeUnknown 无效或未指定地址
	ScopeUnknown Scope = "unknown"

	// ScopeLoopback 回环地址
	ScopeLoopback Scope = "loopback"

	// ScopePrivate 私网或链路本地地址
	ScopePrivate Scope = "private"

	// ScopeShared 运营商级 NAT 共享地址 100.64.0.0/10
	ScopeShared Scope = "shared"

	// ScopePublic 公网地址
	ScopePublic Scope = "public"
)

// sharedPrefix RFC 6598 共享地址空间
var sharedPrefix = netip.MustParsePrefix("100.64.0.0/10")

// Classify 返回地址范围
//
// IPv4-mapped IPv6 按 IPv4 判断。服务端通知的地址不是公网地址时，
// 通常说明客户端与服务端之间还有一层 NAT。
func Classify(ip netip.Addr) Scope {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid() || ip.IsUnspecified():
		return ScopeUnknown
	case ip.IsLoopback():
		return ScopeLoopback
	case ip.IsPrivate() || ip.IsLinkLocalUnicast():
		return ScopePrivate
	case sharedPrefix.Contains(ip):
		return ScopeShared
	case ip.IsGlobalUnicast():
		return ScopePublic
	default:
		return ScopeUnknown
	}
}

// IsPublic 判断是否为公网地址
func IsPublic(ip netip.Addr) bool {
	return Classify(ip) == ScopePublic
}

// IsLoopback 判断是否为回环地址
func IsLoopback(ip netip.Addr) bool {
	return Classify(ip) == ScopeLoopback
}
