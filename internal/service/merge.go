package service

import "github.com/sakif/teamrsvp/internal/model"

// MergeVisible carries UI visibility flags from a previous projection into a
// fresh one.
//
// Entities are matched by id at each level (channel, then event within the
// matched channel), so the order of either projection doesn't matter. Only
// Visible is copied; ids and every other field of fresh are left alone.
// Entities missing from old keep the default they were projected with. If
// old holds the same id twice, the first one wins.
func MergeVisible(old, fresh []model.ChannelView) {
	prev := make(map[string]*model.ChannelView, len(old))
	for i := range old {
		if _, dup := prev[old[i].ID]; !dup {
			prev[old[i].ID] = &old[i]
		}
	}

	for i := range fresh {
		o, ok := prev[fresh[i].ID]
		if !ok {
			continue
		}
		fresh[i].Visible = o.Visible
		mergeEventVisible(o.Events, fresh[i].Events)
	}
}

func mergeEventVisible(old, fresh []model.EventView) {
	prev := make(map[string]bool, len(old))
	for _, e := range old {
		if _, dup := prev[e.ID]; !dup {
			prev[e.ID] = e.Visible
		}
	}

	for i := range fresh {
		if v, ok := prev[fresh[i].ID]; ok {
			fresh[i].Visible = v
		}
	}
}
