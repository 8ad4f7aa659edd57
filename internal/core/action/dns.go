package action

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ============================================================================
//                              DNS 动态更新
// ============================================================================

// 默认值
const (
	DefaultDNSTTL     = 60
	DefaultDNSTimeout = 5 * time.Second
	tsigFudge         = 300
)

// DNSConfig DNS 动态更新配置
type DNSConfig struct {
	// Server 权威服务器 host:port
	Server string

	// Zone 区域名，例如 example.com
	Zone string

	// Name 记录名；相对名拼接到 Zone 之后，"" 或 "@" 表示区域顶点
	Name string

	// TTL A 记录 TTL（秒）
	TTL uint32

	// TSIGName / TSIGSecret / TSIGAlgorithm 可选的 TSIG 签名
	TSIGName      string
	TSIGSecret    string
	TSIGAlgorithm string

	// Timeout 单次请求超时
	Timeout time.Duration
}

// DNSUpdateInvoker 通过 RFC 2136 更新 A 记录
type DNSUpdateInvoker struct {
	cfg    DNSConfig
	client *dns.Client
}

// NewDNSUpdateInvoker 创建 DNS 更新调用器
func NewDNSUpdateInvoker(cfg DNSConfig) *DNSUpdateInvoker {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultDNSTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDNSTimeout
	}
	if cfg.TSIGAlgorithm == "" {
		cfg.TSIGAlgorithm = dns.HmacSHA256
	}

	client := &dns.Client{Net: "udp", Timeout: cfg.Timeout}
	if cfg.TSIGName != "" {
		client.TsigSecret = map[string]string{dns.Fqdn(cfg.TSIGName): cfg.TSIGSecret}
	}

	return &DNSUpdateInvoker{cfg: cfg, client: client}
}

// RecordName 返回完整记录名
func (d *DNSUpdateInvoker) RecordName() string {
	zone := dns.Fqdn(d.cfg.Zone)
	name := d.cfg.Name
	switch {
	case name == "" || name == "@":
		return zone
	case strings.HasSuffix(name, "."):
		return name
	default:
		return dns.Fqdn(name + "." + strings.TrimSuffix(zone, "."))
	}
}

// Message 构造替换 A 记录的更新消息
func (d *DNSUpdateInvoker) Message(ip netip.Addr) (*dns.Msg, error) {
	ip = ip.Unmap()
	if !ip.Is4() {
		return nil, fmt.Errorf("%w: %s", ErrNotIPv4, ip)
	}

	rr := &dns.A{
		Hdr: dns.RR_Header{
			Name:   d.RecordName(),
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    d.cfg.TTL,
		},
		A: net.IP(ip.AsSlice()),
	}

	m := new(dns.Msg)
	m.SetUpdate(dns.Fqdn(d.cfg.Zone))
	m.RemoveRRset([]dns.RR{rr})
	m.Insert([]dns.RR{rr})

	if d.cfg.TSIGName != "" {
		m.SetTsig(dns.Fqdn(d.cfg.TSIGName), dns.Fqdn(d.cfg.TSIGAlgorithm), tsigFudge, time.Now().Unix())
	}
	return m, nil
}

// Invoke 发送动态更新
//
// 网络错误或非 NOERROR 应答返回 ErrDNSUpdate，可重试。
func (d *DNSUpdateInvoker) Invoke(ctx context.Context, ip netip.Addr) error {
	m, err := d.Message(ip)
	if err != nil {
		return err
	}

	resp, rtt, err := d.client.ExchangeContext(ctx, m, d.cfg.Server)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDNSUpdate, d.cfg.Server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%w: %s: rcode %s", ErrDNSUpdate, d.cfg.Server, dns.RcodeToString[resp.Rcode])
	}

	log.Info("DNS 记录已更新",
		"name", d.RecordName(),
		"ip", ip.String(),
		"server", d.cfg.Server,
		"rtt", rtt)
	return nil
}
