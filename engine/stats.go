package engine

import "github.com/rs/zerolog"

// Stats counts what happened during one ChooseMove call.
type Stats struct {
	Nodes            uint64
	QNodes           uint64
	TTHits           uint64
	TTCutoffs        uint64
	BetaCutoffs      uint64
	QStandPatCutoffs uint64
	QBetaCutoffs     uint64
	Aborts           uint64
}

// MarshalZerologObject lets a Stats value be embedded in a log event.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("nodes", s.Nodes).
		Uint64("qnodes", s.QNodes).
		Uint64("tt_hits", s.TTHits).
		Uint64("tt_cutoffs", s.TTCutoffs).
		Uint64("beta_cutoffs", s.BetaCutoffs).
		Uint64("q_standpat_cutoffs", s.QStandPatCutoffs).
		Uint64("q_beta_cutoffs", s.QBetaCutoffs).
		Uint64("aborts", s.Aborts)
}
