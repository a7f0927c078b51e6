package domain

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ChallengeLabel DNS-01 验证记录的固定前缀
const ChallengeLabel = "_acme-challenge"

// ErrNoApex 无法确定注册根域名
var ErrNoApex = errors.New("无法确定注册根域名")

// Normalize 域名规范化：去空格、小写、去掉末尾的 .
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, ".")
}

// EffectiveApex 使用 PSL 计算注册根域名 (eTLD+1)
// 例如: www.example.com -> example.com, a.b.example.co.uk -> example.co.uk
func EffectiveApex(name string) (string, error) {
	name = Normalize(name)
	if name == "" {
		return "", fmt.Errorf("%w: 域名为空", ErrNoApex)
	}
	if net.ParseIP(name) != nil {
		return "", fmt.Errorf("%w: %s 是IP地址", ErrNoApex, name)
	}

	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoApex, name, err)
	}
	return apex, nil
}

// ChallengeFQDN 返回域名对应的验证记录全名
// 例如: example.com -> _acme-challenge.example.com
func ChallengeFQDN(domain string) string {
	return ChallengeLabel + "." + Normalize(domain)
}

// StripApex 去掉 fqdn 末尾的 .<apex>，得到提供商使用的相对记录名
// 例如: _acme-challenge.www.example.com -> _acme-challenge.www
//
// fqdn 本身就是根域名时没有相对名，返回错误而不是 "@"。
func StripApex(fqdn string) (string, error) {
	fqdn = Normalize(fqdn)

	apex, err := EffectiveApex(fqdn)
	if err != nil {
		return "", err
	}

	suffix := "." + apex
	if !strings.HasSuffix(fqdn, suffix) {
		return "", fmt.Errorf("%w: %s 没有位于 %s 之下的子域名", ErrNoApex, fqdn, apex)
	}

	name := strings.TrimSuffix(fqdn, suffix)
	if name == "" {
		return "", fmt.Errorf("%w: %s 的相对名为空", ErrNoApex, fqdn)
	}
	return name, nil
}

// JoinApex 将相对记录名与根域名拼接成完整域名，StripApex 的逆操作
func JoinApex(name, apex string) string {
	return name + "." + Normalize(apex)
}
