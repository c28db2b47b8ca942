package positions

import (
	"context"
	"sort"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// HedgeStore is the slice of the position repository the detector needs.
type HedgeStore interface {
	FindAll(ctx context.Context) ([]model.Position, error)
	SetHedgePair(ctx context.Context, ids []string, pairID *string) error
}

// HedgeDetector groups positions by (wallet, asset) and stamps long/short
// pairs with a shared hedge id. Groups without both sides get cleared.
type HedgeDetector struct {
	store HedgeStore
	newID func() string
}

// NewHedgeDetector wires a detector over the given store.
func NewHedgeDetector(store HedgeStore) *HedgeDetector {
	return &HedgeDetector{
		store: store,
		newID: func() string { return uuid.NewString() },
	}
}

// Relink recomputes hedge pairing across all positions and writes the marks
// back. It returns the detected pairs with their aggregates.
func (d *HedgeDetector) Relink(ctx context.Context) ([]model.HedgePair, error) {
	stored, err := d.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	pairs, unpaired := PairGroups(stored, d.newID)

	for i := range pairs {
		id := pairs[i].ID
		if err := d.store.SetHedgePair(ctx, pairs[i].PositionIDs, &id); err != nil {
			return nil, err
		}
	}
	if err := d.store.SetHedgePair(ctx, unpaired, nil); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"pairs":    len(pairs),
		"unpaired": len(unpaired),
	}).Info("Hedge pairing relinked")

	return pairs, nil
}

// PairGroups partitions positions into hedge pairs and unpaired leftovers.
// A (wallet, asset) group qualifies when it holds at least one LONG and one
// SHORT; every member of a qualifying group shares one fresh pair id.
func PairGroups(positions []model.Position, newID func() string) ([]model.HedgePair, []string) {
	type groupKey struct {
		wallet string
		asset  string
	}

	groups := make(map[groupKey][]model.Position)
	for _, p := range positions {
		k := groupKey{wallet: p.WalletName, asset: p.Asset}
		groups[k] = append(groups[k], p)
	}

	// Deterministic iteration keeps pair output stable for tests and logs.
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].wallet != keys[j].wallet {
			return keys[i].wallet < keys[j].wallet
		}
		return keys[i].asset < keys[j].asset
	})

	var pairs []model.HedgePair
	var unpaired []string

	for _, k := range keys {
		members := groups[k]

		hasLong, hasShort := false, false
		for _, p := range members {
			switch p.Side {
			case model.SideLong:
				hasLong = true
			case model.SideShort:
				hasShort = true
			}
		}

		if !hasLong || !hasShort {
			for _, p := range members {
				unpaired = append(unpaired, p.ID)
			}
			continue
		}

		pair := model.HedgePair{
			ID:     newID(),
			Wallet: k.wallet,
			Asset:  k.asset,
		}
		for _, p := range members {
			pair.PositionIDs = append(pair.PositionIDs, p.ID)
			pair.TotalHeat += p.HeatIndex
			switch p.Side {
			case model.SideLong:
				pair.TotalLongSize += p.Size
			case model.SideShort:
				pair.TotalShortSize += p.Size
			}
		}
		pairs = append(pairs, pair)
	}

	return pairs, unpaired
}
