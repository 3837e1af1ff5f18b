package systems

import (
	"github.com/zwm-666/wargrid/engine/core"
)

// StealthSystem keeps cloak flags current. A cloaked unit stays hidden
// until an enemy detector comes within the detector's own sight range.
type StealthSystem struct {
	Players *core.PlayerManager
}

func NewStealthSystem(players *core.PlayerManager) *StealthSystem {
	return &StealthSystem{Players: players}
}

func (s *StealthSystem) Priority() int { return 4 }

func (s *StealthSystem) Update(w *core.World, _ float64) {
	var detectors []core.EntityID
	for _, id := range w.Query(core.CompVision, core.CompPosition, core.CompOwner) {
		v := w.Get(id, core.CompVision).(*core.Vision)
		if v.Detect && entityAlive(w, id) {
			detectors = append(detectors, id)
		}
	}

	for _, id := range w.Query(core.CompVision, core.CompPosition, core.CompOwner) {
		v := w.Get(id, core.CompVision).(*core.Vision)
		if !v.Cloak {
			continue
		}
		if !entityAlive(w, id) {
			v.CloakActive = false
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		own := w.Get(id, core.CompOwner).(*core.Owner)

		v.CloakActive = true
		for _, did := range detectors {
			down := w.Get(did, core.CompOwner).(*core.Owner)
			if s.Players.AreAllies(own.PlayerID, down.PlayerID) {
				continue
			}
			dv := w.Get(did, core.CompVision).(*core.Vision)
			dpos := w.Get(did, core.CompPosition).(*core.Position)
			if pos.DistanceTo(dpos) <= float64(dv.Range) {
				v.CloakActive = false
				break
			}
		}
	}
}

// BerserkSystem toggles the berserk bonus on units whose health ratio is
// at or below their threshold.
type BerserkSystem struct{}

func NewBerserkSystem() *BerserkSystem { return &BerserkSystem{} }

func (s *BerserkSystem) Priority() int { return 5 }

func (s *BerserkSystem) Update(w *core.World, _ float64) {
	for _, id := range w.Query(core.CompBerserk, core.CompHealth) {
		b := w.Get(id, core.CompBerserk).(*core.Berserk)
		h := w.Get(id, core.CompHealth).(*core.Health)
		b.Active = h.Current > 0 && h.Ratio() <= b.Threshold
	}
}
