// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/bookfinder/pkg/types"

// Fallback trigger reasons, also used as metric labels.
const (
	reasonEmpty       = "empty"
	reasonUnderfilled = "underfilled"
	reasonCoverGap    = "cover_gap"
	reasonMetadataGap = "metadata_gap"
)

// Gaps describes page-quality deficiencies of a first page.
type Gaps struct {
	Cover    bool
	Metadata bool
}

// Any reports whether any gap was found.
func (g Gaps) Any() bool { return g.Cover || g.Metadata }

// detectGaps inspects the first limit items of a first page. Later pages
// never report gaps.
func detectGaps(page *types.SearchPage, w types.Window) Gaps {
	if w.StartIndex != 0 {
		return Gaps{}
	}
	items := page.PageItems
	if len(items) > w.Limit {
		items = items[:w.Limit]
	}

	var covers, complete int
	for _, b := range items {
		if HasRenderableCover(b) {
			covers++
		}
		if b.HasDescription() && b.PageCount > 0 {
			complete++
		}
	}
	return Gaps{
		Cover:    covers < w.Limit,
		Metadata: complete < w.Limit,
	}
}

// fallbackReasons returns why fallback should run, or nil when it should
// not. Wildcard queries and missing providers never fall back.
func fallbackReasons(req types.SearchRequest, page *types.SearchPage, w types.Window, hasProvider bool) []string {
	if req.IsWildcard() || !hasProvider {
		return nil
	}

	var reasons []string
	switch {
	case len(page.PageItems) == 0:
		reasons = append(reasons, reasonEmpty)
	case w.StartIndex > 0 && len(page.PageItems) < w.Limit:
		reasons = append(reasons, reasonUnderfilled)
	}

	gaps := detectGaps(page, w)
	if gaps.Cover {
		reasons = append(reasons, reasonCoverGap)
	}
	if gaps.Metadata {
		reasons = append(reasons, reasonMetadataGap)
	}
	return reasons
}
