package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dns01-hook/internal/config"
	"dns01-hook/internal/poll/polltest"
	"dns01-hook/internal/provider"
	"dns01-hook/internal/provider/memory"
)

var exampleZone = provider.Zone{ID: "zone-1", Apex: "example.com"}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing.SettleDelay = 0
	cfg.Timing.ReloadTimeout = 5 * time.Second
	cfg.Timing.PropagationTimeout = 5 * time.Second
	return cfg
}

// fakeQuerier 依次返回预设应答，用完后重复最后一个
type fakeQuerier struct {
	mu      sync.Mutex
	answers [][]string
	calls   int
}

func (q *fakeQuerier) LookupTXT(ctx context.Context, fqdn string) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.calls++
	if len(q.answers) == 0 {
		return nil, nil
	}
	i := q.calls - 1
	if i >= len(q.answers) {
		i = len(q.answers) - 1
	}
	return q.answers[i], nil
}

func (q *fakeQuerier) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func testManager(cfg *config.Config, p provider.DNSProvider, q *fakeQuerier) *Manager {
	return newManager(cfg, testLogger(), p, q).withTimer(polltest.NewTimer())
}

func TestDeployChallenge(t *testing.T) {
	p := memory.New(exampleZone)
	q := &fakeQuerier{answers: [][]string{{"abc123"}}}
	m := testManager(testConfig(), p, q)

	err := m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"})
	require.NoError(t, err)

	assert.Equal(t, []memory.Call{
		{Method: "CreateTXTRecord", Args: []string{"zone-1", "_acme-challenge", "abc123"}},
	}, p.CallsTo("CreateTXTRecord"))
	assert.Len(t, p.CallsTo("Reload"), 1)
	assert.Equal(t, 1, q.Calls())

	records := p.Records("zone-1")
	require.Len(t, records, 1)
	assert.Equal(t, "_acme-challenge", records[0].Name)
	assert.Equal(t, "abc123", records[0].Value)
}

func TestDeployChallengeSubdomain(t *testing.T) {
	p := memory.New(exampleZone)
	q := &fakeQuerier{answers: [][]string{{"tok"}}}
	m := testManager(testConfig(), p, q)

	err := m.Run(context.Background(), DeployChallenge{Domain: "www.Example.com.", Token: "tok"})
	require.NoError(t, err)

	calls := p.CallsTo("CreateTXTRecord")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"zone-1", "_acme-challenge.www", "tok"}, calls[0].Args)
}

func TestDeployChallengeWaitsForPropagation(t *testing.T) {
	p := memory.New(exampleZone)
	q := &fakeQuerier{answers: [][]string{{}, {"wrong"}, {"abc123"}}}
	m := testManager(testConfig(), p, q)

	require.NoError(t, m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"}))
	assert.Equal(t, 3, q.Calls())
}

func TestDeployChallengeZoneNotFound(t *testing.T) {
	p := memory.New(provider.Zone{ID: "zone-2", Apex: "example.org"})
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"})
	assert.ErrorIs(t, err, provider.ErrZoneNotFound)
	assert.Empty(t, p.CallsTo("CreateTXTRecord"))
	assert.Empty(t, p.CallsTo("Reload"))
}

func TestDeployChallengeProviderError(t *testing.T) {
	boom := errors.New("认证失败")
	p := memory.New(exampleZone)
	p.Err = boom
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, p.Calls(), 1)
}

func TestDeployChallengeInvalidDomain(t *testing.T) {
	p := memory.New(exampleZone)
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), DeployChallenge{Domain: "", Token: "abc123"})
	assert.Error(t, err)
	assert.Empty(t, p.Calls())
}

func TestDeployChallengeReloadFailed(t *testing.T) {
	p := memory.New(exampleZone)
	p.JobFailed = true
	q := &fakeQuerier{answers: [][]string{{"abc123"}}}
	m := testManager(testConfig(), p, q)

	err := m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"})
	assert.ErrorIs(t, err, ErrReloadFailed)
	assert.Equal(t, 0, q.Calls())

	// 不回滚，记录保留
	assert.Len(t, p.Records("zone-1"), 1)
}

func TestDeployChallengePropagationTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timing.PropagationInterval = 5 * time.Millisecond
	cfg.Timing.PropagationTimeout = 40 * time.Millisecond

	p := memory.New(exampleZone)
	q := &fakeQuerier{answers: [][]string{{"wrong"}}}
	m := newManager(cfg, testLogger(), p, q)

	err := m.Run(context.Background(), DeployChallenge{Domain: "example.com", Token: "abc123"})
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	assert.Greater(t, q.Calls(), 1)
}

func TestCleanChallenge(t *testing.T) {
	p := memory.New(exampleZone)
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "a", Name: "_acme-challenge", Type: "TXT", Value: "old"})
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "b", Name: "_acme-challenge", Type: "TXT", Value: "abc123"})
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "c", Name: "www", Type: "TXT", Value: "abc123"})
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), CleanChallenge{Domain: "example.com", Token: "abc123"})
	require.NoError(t, err)

	assert.Equal(t, []memory.Call{
		{Method: "DeleteRecord", Args: []string{"zone-1", "b"}},
	}, p.CallsTo("DeleteRecord"))
	assert.Empty(t, p.CallsTo("Reload"))

	var ids []string
	for _, r := range p.Records("zone-1") {
		ids = append(ids, r.RecordID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestCleanChallengeNoMatch(t *testing.T) {
	p := memory.New(exampleZone)
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "a", Name: "_acme-challenge", Type: "TXT", Value: "other"})
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), CleanChallenge{Domain: "example.com", Token: "abc123"})
	require.NoError(t, err)
	assert.Empty(t, p.CallsTo("DeleteRecord"))
}

func TestCleanChallengeEmptyZone(t *testing.T) {
	p := memory.New(exampleZone)
	m := testManager(testConfig(), p, &fakeQuerier{})

	require.NoError(t, m.Run(context.Background(), CleanChallenge{Domain: "example.com", Token: "abc123"}))
	assert.Empty(t, p.CallsTo("DeleteRecord"))
}

func TestCleanChallengeZoneNotFound(t *testing.T) {
	p := memory.New()
	m := testManager(testConfig(), p, &fakeQuerier{})

	require.NoError(t, m.Run(context.Background(), CleanChallenge{Domain: "example.com", Token: "abc123"}))
	assert.Empty(t, p.CallsTo("ZoneRecords"))
	assert.Empty(t, p.CallsTo("DeleteRecord"))
}

func TestCleanChallengeEmptyDomain(t *testing.T) {
	p := memory.New(exampleZone)
	m := testManager(testConfig(), p, &fakeQuerier{})

	require.NoError(t, m.Run(context.Background(), CleanChallenge{Domain: "", Token: "abc123"}))
	assert.Empty(t, p.Calls())
}

func TestCleanChallengeAmbiguous(t *testing.T) {
	p := memory.New(exampleZone)
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "a", Name: "_acme-challenge", Type: "TXT", Value: "abc123"})
	p.AddRecord("zone-1", provider.DNSRecord{RecordID: "b", Name: "_acme-challenge", Type: "TXT", Value: "abc123"})
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), CleanChallenge{Domain: "example.com", Token: "abc123"})

	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"a", "b"}, ambiguous.RecordIDs)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
	assert.Empty(t, p.CallsTo("DeleteRecord"))
}

func TestDeployThenClean(t *testing.T) {
	p := memory.New(exampleZone)
	q := &fakeQuerier{answers: [][]string{{"abc123"}}}
	m := testManager(testConfig(), p, q)
	ctx := context.Background()

	require.NoError(t, m.Run(ctx, DeployChallenge{Domain: "example.com", Token: "abc123"}))
	require.NoError(t, m.Run(ctx, CleanChallenge{Domain: "example.com", Token: "abc123"}))

	assert.Empty(t, p.Records("zone-1"))
	assert.Len(t, p.CallsTo("DeleteRecord"), 1)
}

func TestDeployCertLogsOnly(t *testing.T) {
	p := memory.New(exampleZone)
	m := testManager(testConfig(), p, &fakeQuerier{})

	err := m.Run(context.Background(), DeployCert{
		Domain:        "example.com",
		KeyFile:       "/certs/example.com/privkey.pem",
		CertFile:      "/certs/example.com/cert.pem",
		FullchainFile: "/certs/example.com/fullchain.pem",
		ChainFile:     "/certs/example.com/chain.pem",
		Timestamp:     "1700000000",
	})
	require.NoError(t, err)
	assert.Empty(t, p.Calls())
}

func TestDeployCertInstallAndPostCommand(t *testing.T) {
	src := t.TempDir()
	for name, content := range map[string]string{
		"privkey.pem":   "KEY",
		"cert.pem":      "CERT",
		"fullchain.pem": "CERT\nCHAIN",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(content), 0600))
	}

	installDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")

	cfg := testConfig()
	cfg.Deploy.InstallDir = installDir
	cfg.Deploy.PostCommand = "echo ${DOMAIN} ${FULLCHAIN_FILE} ${TIMESTAMP} > " + out

	m := testManager(cfg, memory.New(exampleZone), &fakeQuerier{})

	err := m.Run(context.Background(), DeployCert{
		Domain:        "example.com",
		KeyFile:       filepath.Join(src, "privkey.pem"),
		CertFile:      filepath.Join(src, "cert.pem"),
		FullchainFile: filepath.Join(src, "fullchain.pem"),
		ChainFile:     filepath.Join(src, "chain.pem"),
		Timestamp:     "1700000000",
	})
	require.NoError(t, err)

	installed := filepath.Join(installDir, "example.com", "fullchain.pem")
	data, err := os.ReadFile(installed)
	require.NoError(t, err)
	assert.Equal(t, "CERT\nCHAIN", string(data))

	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "example.com "+installed+" 1700000000\n", string(data))
}

func TestDeployCertPostCommandFails(t *testing.T) {
	cfg := testConfig()
	cfg.Deploy.PostCommand = "exit 3"
	m := testManager(cfg, memory.New(exampleZone), &fakeQuerier{})

	err := m.Run(context.Background(), DeployCert{Domain: "example.com"})
	assert.Error(t, err)
}

func TestUnchangedCert(t *testing.T) {
	p := memory.New(exampleZone)
	m := testManager(testConfig(), p, &fakeQuerier{})

	require.NoError(t, m.Run(context.Background(), UnchangedCert{Args: []string{"example.com", "a", "b"}}))
	assert.Empty(t, p.Calls())
}

func TestRunNilOperation(t *testing.T) {
	m := testManager(testConfig(), memory.New(), &fakeQuerier{})
	assert.ErrorIs(t, m.Run(context.Background(), nil), ErrUnknownOperation)
}
