package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotVersion is written into every snapshot. Version 0 is the legacy
// bare-array format.
const SnapshotVersion = 1

var ErrBadSnapshot = errors.New("bad cart snapshot")

type snapshotItem struct {
	ArtworkID      string `json:"artworkId"`
	Size           string `json:"size"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	Title          string `json:"title"`
	ImageURL       string `json:"imageUrl"`
}

type snapshot struct {
	Version int            `json:"version"`
	Items   []snapshotItem `json:"items"`
}

func EncodeSnapshot(items []LineItem) ([]byte, error) {
	snap := snapshot{Version: SnapshotVersion, Items: make([]snapshotItem, 0, len(items))}
	for _, it := range items {
		snap.Items = append(snap.Items, snapshotItem{
			ArtworkID:      it.ArtworkID,
			Size:           it.Size,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			Title:          it.Title,
			ImageURL:       it.ImageURL,
		})
	}
	return json.Marshal(snap)
}

// DecodeSnapshot accepts the versioned object form and the legacy bare array.
// Anything that would break the cart invariants is rejected with ErrBadSnapshot.
func DecodeSnapshot(data []byte) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadSnapshot)
	}

	var raw []snapshotItem
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	case '{':
		var snap snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		if snap.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, snap.Version)
		}
		raw = snap.Items
	default:
		return nil, fmt.Errorf("%w: not json", ErrBadSnapshot)
	}

	items := make([]LineItem, 0, len(raw))
	seen := make(map[Key]struct{}, len(raw))
	for i, it := range raw {
		li := LineItem{
			ArtworkID:      it.ArtworkID,
			Size:           it.Size,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			Title:          it.Title,
			ImageURL:       it.ImageURL,
		}
		if li.ArtworkID == "" || li.Quantity < 1 || li.UnitPriceCents < 0 {
			return nil, fmt.Errorf("%w: item %d invalid", ErrBadSnapshot, i)
		}
		if _, dup := seen[li.Key()]; dup {
			return nil, fmt.Errorf("%w: item %d duplicates %s/%s", ErrBadSnapshot, i, li.ArtworkID, li.Size)
		}
		seen[li.Key()] = struct{}{}
		items = append(items, li)
	}
	return items, nil
}
