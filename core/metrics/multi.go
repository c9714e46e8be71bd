package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink is called even
// when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordProposal(ev ProposalEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordProposal(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordMutations(ev MutationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(MutationRecorder); ok {
			errs = append(errs, rec.RecordMutations(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAccept(ev AcceptEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(AcceptRecorder); ok {
			errs = append(errs, rec.RecordAccept(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordClashes(ev ClashEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ClashRecorder); ok {
			errs = append(errs, rec.RecordClashes(ev))
		}
	}
	return errors.Join(errs...)
}
