// Package dnscheck 通过直接查询 DNS 服务器确认 TXT 记录已传播。
package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolvConf 未配置 DNS 服务器时读取的系统解析配置
const DefaultResolvConf = "/etc/resolv.conf"

// ErrNoServers 没有可用的 DNS 服务器
var ErrNoServers = errors.New("没有可用的DNS服务器")

// Querier TXT 记录查询接口
type Querier interface {
	// LookupTXT 返回 fqdn 下全部 TXT 记录值，同一记录的多个字符串拼接为一个值
	LookupTXT(ctx context.Context, fqdn string) ([]string, error)
}

// RcodeError DNS 服务器返回非成功的响应码
type RcodeError struct {
	Server string
	Rcode  int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("%s 返回 %s", e.Server, dns.RcodeToString[e.Rcode])
}

// Resolver 按顺序查询一组 DNS 服务器
//
// 网络错误、SERVFAIL、REFUSED 时换下一台服务器；NXDOMAIN 视为权威应答，直接返回。
type Resolver struct {
	servers []string
	udp     *dns.Client
	tcp     *dns.Client
}

// NewResolver 创建解析器。servers 为空时使用 resolvConf 中的 nameserver。
func NewResolver(servers []string, timeout time.Duration, resolvConf string) (*Resolver, error) {
	if len(servers) == 0 {
		if resolvConf == "" {
			resolvConf = DefaultResolvConf
		}
		cc, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			return nil, fmt.Errorf("读取 %s 失败: %w", resolvConf, err)
		}
		for _, s := range cc.Servers {
			servers = append(servers, net.JoinHostPort(s, cc.Port))
		}
	}

	var addrs []string
	for _, s := range servers {
		if s = strings.TrimSpace(s); s != "" {
			addrs = append(addrs, withPort(s))
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNoServers
	}

	return &Resolver{
		servers: addrs,
		udp:     &dns.Client{Net: "udp", Timeout: timeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: timeout},
	}, nil
}

// Servers 返回实际查询的服务器地址
func (r *Resolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// LookupTXT 查询 TXT 记录
func (r *Resolver) LookupTXT(ctx context.Context, fqdn string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		in, err := r.exchange(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("查询 %s 失败: %w", server, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
			return txtValues(in), nil
		case dns.RcodeNameError:
			return nil, &RcodeError{Server: server, Rcode: in.Rcode}
		default:
			lastErr = &RcodeError{Server: server, Rcode: in.Rcode}
		}
	}

	return nil, lastErr
}

// exchange UDP 查询，响应被截断时改用 TCP
func (r *Resolver) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	in, _, err := r.udp.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	if in.Truncated {
		in, _, err = r.tcp.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, err
		}
	}
	return in, nil
}

func txtValues(in *dns.Msg) []string {
	var values []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	return values
}

// withPort 未指定端口时补全 53
func withPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}
