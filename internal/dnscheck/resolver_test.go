package dnscheck

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer 启动本地 UDP DNS 服务器，返回监听地址
func startServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started

	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func txtHandler(values ...[]string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		for _, txt := range values {
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
				Txt: txt,
			})
		}
		_ = w.WriteMsg(m)
	}
}

func rcodeHandler(rcode int) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, rcode)
		_ = w.WriteMsg(m)
	}
}

func TestLookupTXT(t *testing.T) {
	addr := startServer(t, txtHandler([]string{"abc", "123"}, []string{"other"}))

	r, err := NewResolver([]string{addr}, time.Second, "")
	require.NoError(t, err)

	values, err := r.LookupTXT(context.Background(), "_acme-challenge.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123", "other"}, values)
}

func TestLookupTXTEmptyAnswer(t *testing.T) {
	addr := startServer(t, txtHandler())

	r, err := NewResolver([]string{addr}, time.Second, "")
	require.NoError(t, err)

	values, err := r.LookupTXT(context.Background(), "_acme-challenge.example.com.")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestLookupTXTFallsThroughOnServerFailure(t *testing.T) {
	failing := startServer(t, rcodeHandler(dns.RcodeServerFailure))
	healthy := startServer(t, txtHandler([]string{"token"}))

	r, err := NewResolver([]string{failing, healthy}, time.Second, "")
	require.NoError(t, err)

	values, err := r.LookupTXT(context.Background(), "_acme-challenge.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"token"}, values)
}

func TestLookupTXTNameErrorIsFinal(t *testing.T) {
	missing := startServer(t, rcodeHandler(dns.RcodeNameError))
	healthy := startServer(t, txtHandler([]string{"token"}))

	r, err := NewResolver([]string{missing, healthy}, time.Second, "")
	require.NoError(t, err)

	_, err = r.LookupTXT(context.Background(), "_acme-challenge.example.com")

	var rcodeErr *RcodeError
	require.ErrorAs(t, err, &rcodeErr)
	assert.Equal(t, dns.RcodeNameError, rcodeErr.Rcode)
	assert.Equal(t, missing, rcodeErr.Server)
}

func TestLookupTXTAllServersFail(t *testing.T) {
	refused := startServer(t, rcodeHandler(dns.RcodeRefused))

	r, err := NewResolver([]string{refused}, time.Second, "")
	require.NoError(t, err)

	_, err = r.LookupTXT(context.Background(), "_acme-challenge.example.com")

	var rcodeErr *RcodeError
	require.ErrorAs(t, err, &rcodeErr)
	assert.Equal(t, dns.RcodeRefused, rcodeErr.Rcode)
}

func TestNewResolverDefaultsPort(t *testing.T) {
	r, err := NewResolver([]string{"1.1.1.1", "8.8.8.8:5353", " ", "2001:db8::1"}, time.Second, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.1.1:53", "8.8.8.8:5353", "[2001:db8::1]:53"}, r.Servers())
}

func TestNewResolverFromResolvConf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte("nameserver 127.0.0.1\nnameserver 10.0.0.1\n"), 0644))

	r, err := NewResolver(nil, time.Second, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"127.0.0.1:53", "10.0.0.1:53"}, r.Servers())
}

func TestNewResolverNoServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte("# empty\n"), 0644))

	_, err := NewResolver(nil, time.Second, path)
	assert.ErrorIs(t, err, ErrNoServers)

	_, err = NewResolver(nil, time.Second, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
