// Package rating turns raw interactions into the canonical rating table:
// one record per (actor, item), rated by the strongest signal seen.
package rating

import (
	"sort"

	"github.com/okian/recomodel/internal/domain/interaction"
)

// Record is a deduplicated actor/item rating.
type Record struct {
	ActorID string
	ItemID  string
	Rating  float64
}

// Result is the output of one aggregation pass.
type Result struct {
	// Records is sorted by actor then item. Order carries no meaning beyond
	// making repeated passes over the same data byte-identical.
	Records []Record
	// Count is the number of distinct records and the sole volume signal.
	Count int
	// Skipped counts raw records dropped as malformed.
	Skipped int
	// Actors and Items are the distinct ids present in Records.
	Actors int
	Items  int
}

type pair struct {
	actor string
	item  string
}

// Aggregate groups raw interactions by (actor, item) and keeps the maximum
// weight of each group. Malformed records are skipped without aborting.
func Aggregate(raws []interaction.Raw) Result {
	best := make(map[pair]float64, len(raws))
	skipped := 0

	for _, r := range raws {
		if !r.Valid() {
			skipped++
			continue
		}
		// Ids are grouped exactly as stored; " u1" and "u1" are distinct actors.
		key := pair{actor: r.ActorID, item: r.ItemID}
		// Only update if the new weight is higher.
		if current, ok := best[key]; !ok || r.Weight > current {
			best[key] = r.Weight
		}
	}

	records := make([]Record, 0, len(best))
	actors := make(map[string]struct{})
	items := make(map[string]struct{})
	for key, w := range best {
		records = append(records, Record{ActorID: key.actor, ItemID: key.item, Rating: w})
		actors[key.actor] = struct{}{}
		items[key.item] = struct{}{}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ActorID != records[j].ActorID {
			return records[i].ActorID < records[j].ActorID
		}
		return records[i].ItemID < records[j].ItemID
	})

	return Result{
		Records: records,
		Count:   len(records),
		Skipped: skipped,
		Actors:  len(actors),
		Items:   len(items),
	}
}
