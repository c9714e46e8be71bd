package metrics

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetmaint/core/factory"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordProposal(ProposalEvent) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordMutations(MutationEvent) error {
	r.count++
	return r.err
}

// proposalOnly implements none of the optional recorders.
type proposalOnly struct{ count int }

func (p *proposalOnly) RecordProposal(ProposalEvent) error {
	p.count++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &proposalOnly{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordProposal(ProposalEvent{PlanID: "p"}); err != nil {
		t.Fatalf("record proposal: %v", err)
	}
	if err := m.RecordMutations(MutationEvent{Applied: 1}); err != nil {
		t.Fatalf("record mutations: %v", err)
	}
	if err := m.RecordAccept(AcceptEvent{}); err != nil {
		t.Fatalf("record accept: %v", err)
	}
	if s1.count != 2 || s2.count != 1 {
		t.Fatalf("unexpected forward counts %d %d", s1.count, s2.count)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordSink{err: boom}
	after := &recordSink{}
	err := NewMultiSink(failing, after).RecordProposal(ProposalEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if after.count != 1 {
		t.Fatalf("later sink not called")
	}
}

func TestNewMetricsSinkFromYAML(t *testing.T) {
	_ = RegisterMetricsSink("test-record", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	})
	data := "sinks:\n  - type: test-record\n  - type: test-record\nprometheus_addr: \":9100\"\n"
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s, err := NewMetricsSink(cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*MultiSink); !ok {
		t.Fatalf("expected MultiSink got %T", s)
	}
	if cfg.PrometheusAddr != ":9100" {
		t.Fatalf("unexpected addr %q", cfg.PrometheusAddr)
	}
}

func TestNewMetricsSinkDefaultsAndErrors(t *testing.T) {
	_ = RegisterMetricsSink("test-record", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	})
	s, err := NewMetricsSink(Config{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink got %T", s)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	_, err = NewMetricsSink(cfg)
	if err == nil || !strings.Contains(err.Error(), "metrics.sinks[0]") || !strings.Contains(err.Error(), "test-record") {
		t.Fatalf("expected error naming the sink and the known types, got %v", err)
	}
	if !slices.Contains(SinkTypes(), "test-record") {
		t.Fatalf("registered types = %v", SinkTypes())
	}
	if err := (Config{Sinks: []factory.ModuleConfig{{}}}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
