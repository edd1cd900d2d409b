package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
)

// record is the durable JSON document for one (Position, rune) entry.
type record struct {
	Site   uint16        `json:"site"`
	Clock  uint16        `json:"clock"`
	Digits []path.Digit  `json:"digits"`
	Ch     rune          `json:"ch"`
}

func encodeRecord(p pos.Position, ch rune) ([]byte, error) {
	r := record{Site: p.SiteID(), Clock: p.Clock(), Digits: p.Path().Digits(), Ch: ch}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal record: %w", err)
	}
	return b, nil
}

func decodeRecord(b []byte) (pos.Position, rune, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return pos.Position{}, 0, fmt.Errorf("snapshot: unmarshal record: %w", err)
	}
	p, err := pos.New(r.Site, r.Clock, r.Digits)
	if err != nil {
		return pos.Position{}, 0, fmt.Errorf("snapshot: decode position: %w", err)
	}
	return p, r.Ch, nil
}

// fieldKey is the Redis hash field a Position is stored under. It need not
// sort consistently with Position.Cmp: on reconcile every field is loaded
// and fed through Storage.ExtendPairs, which doesn't depend on load order.
func fieldKey(p pos.Position) string {
	return fmt.Sprintf("%d.%d.%v", p.SiteID(), p.Clock(), p.Path().Digits())
}
