package httpapi

import (
	"fmt"

	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
)

// PositionDTO is the wire representation of a Position. pos.Position's
// fields are private by design (spec.md's tagged-path representation isn't
// meant to leak), so every boundary that crosses the network goes through
// this explicit, stable shape instead of json-tagging the core type
// directly.
type PositionDTO struct {
	Site   uint16       `json:"site"`
	Clock  uint16       `json:"clock"`
	Digits []path.Digit `json:"digits"`
}

func fromPosition(p pos.Position) PositionDTO {
	return PositionDTO{Site: p.SiteID(), Clock: p.Clock(), Digits: p.Path().Digits()}
}

func (d PositionDTO) toPosition() (pos.Position, error) {
	p, err := pos.New(d.Site, d.Clock, d.Digits)
	if err != nil {
		return pos.Position{}, fmt.Errorf("invalid position: %w", err)
	}
	return p, nil
}

// firstDTO and lastDTO are the wire forms of the document's sentinels: a
// client anchors at FIRST or LAST by sending exactly this site, clock and
// digit triple. No route serves them; clients build them by hand. Site 0 / clock 0 is never
// issued to a real replica (siteid.Table reserves it), so this is
// unambiguous wire notation for the CRDT's fixed anchors.
var (
	firstDTO = fromPosition(pos.First())
	lastDTO  = fromPosition(pos.Last())
)
