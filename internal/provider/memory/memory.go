// Package memory 提供内存中的DNS提供商实现，记录每一次远程调用，用于测试。
package memory

import (
	"context"
	"fmt"
	"sync"

	"dns01-hook/internal/provider"
)

// Call 一次远程调用
type Call struct {
	Method string
	Args   []string
}

// Provider 内存DNS提供商，实现 provider.DNSProvider 与 provider.Reloader
type Provider struct {
	mu      sync.Mutex
	zones   []provider.Zone
	records map[string][]*provider.DNSRecord
	calls   []Call
	nextID  int

	// JobStates 依次返回的任务完成状态，用完后一直返回已完成
	JobStates []bool
	// JobFailed 任务结束时是否报告错误
	JobFailed bool
	// Err 非空时所有调用返回该错误
	Err error
}

// New 创建内存提供商
func New(zones ...provider.Zone) *Provider {
	return &Provider{
		zones:   zones,
		records: make(map[string][]*provider.DNSRecord),
	}
}

// AddRecord 直接写入一条记录，不计入调用
func (p *Provider) AddRecord(zoneID string, record provider.DNSRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record.ZoneID = zoneID
	p.records[zoneID] = append(p.records[zoneID], &record)
}

// Records 返回 Zone 当前的记录
func (p *Provider) Records(zoneID string) []provider.DNSRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]provider.DNSRecord, 0, len(p.records[zoneID]))
	for _, r := range p.records[zoneID] {
		out = append(out, *r)
	}
	return out
}

// Calls 返回全部调用记录
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsTo 返回指定方法的调用记录
func (p *Provider) CallsTo(method string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (p *Provider) record(method string, args ...string) error {
	p.calls = append(p.calls, Call{Method: method, Args: args})
	return p.Err
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "memory"
}

// ListZones 列出 Zone
func (p *Provider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListZones"); err != nil {
		return nil, err
	}
	return append([]provider.Zone(nil), p.zones...), nil
}

// ZoneRecords 列出 Zone 内记录
func (p *Provider) ZoneRecords(ctx context.Context, zoneID string) ([]*provider.DNSRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ZoneRecords", zoneID); err != nil {
		return nil, err
	}
	out := make([]*provider.DNSRecord, 0, len(p.records[zoneID]))
	for _, r := range p.records[zoneID] {
		rec := *r
		out = append(out, &rec)
	}
	return out, nil
}

// CreateTXTRecord 创建TXT记录
func (p *Provider) CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateTXTRecord", zoneID, name, value); err != nil {
		return "", err
	}
	if !p.hasZone(zoneID) {
		return "", fmt.Errorf("zone %q: %w", zoneID, provider.ErrZoneNotFound)
	}

	p.nextID++
	id := fmt.Sprintf("rec-%d", p.nextID)
	p.records[zoneID] = append(p.records[zoneID], &provider.DNSRecord{
		RecordID: id,
		ZoneID:   zoneID,
		Name:     name,
		Type:     provider.RecordTypeTXT,
		Value:    value,
	})
	return id, nil
}

// DeleteRecord 删除记录
func (p *Provider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DeleteRecord", zoneID, recordID); err != nil {
		return err
	}

	records := p.records[zoneID]
	for i, r := range records {
		if r.RecordID == recordID {
			p.records[zoneID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("record %q: %w", recordID, provider.ErrRecordNotFound)
}

// Reload 触发发布任务
func (p *Provider) Reload(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Reload"); err != nil {
		return "", err
	}
	return "job-1", nil
}

// JobStatus 按 JobStates 顺序返回任务状态
func (p *Provider) JobStatus(ctx context.Context, jobID string) (*provider.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("JobStatus", jobID); err != nil {
		return nil, err
	}

	finished := true
	if len(p.JobStates) > 0 {
		finished = p.JobStates[0]
		p.JobStates = p.JobStates[1:]
	}
	return &provider.Job{
		ID:       jobID,
		Finished: finished,
		Failed:   finished && p.JobFailed,
	}, nil
}

func (p *Provider) hasZone(zoneID string) bool {
	for _, z := range p.zones {
		if z.ID == zoneID {
			return true
		}
	}
	return false
}

var (
	_ provider.DNSProvider = (*Provider)(nil)
	_ provider.Reloader    = (*Provider)(nil)
)
