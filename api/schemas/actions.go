package schemas

import "github.com/xkilldash9x/scalpel-locator/internal/geometry"

// PanelPoint holds the recorded screen points of one date picker panel.
type PanelPoint struct {
	PreMonth  *geometry.Point  `json:"preMonth,omitempty"`
	YearMonth geometry.Point   `json:"yearMonth"`
	NextMonth *geometry.Point  `json:"nextMonth,omitempty"`
	Dates     []geometry.Point `json:"dates"`
}

// BuildFromPointsRequest asks for a date selector built from recorded points.
// SPath is the selector path of the enclosing frame, if any.
type BuildFromPointsRequest struct {
	Panels []PanelPoint   `json:"panels"`
	SPath  []SelectorNode `json:"sPath,omitempty"`
}

// DateSelector is a built, persistable date picker selector.
type DateSelector struct {
	PanelsBase []SelectorNode  `json:"panelsBase"`
	Nodes      FeatureSelector `json:"nodes"`
}

// BuildFromPointsResponse is either a built selector or a tunneling envelope.
type BuildFromPointsResponse struct {
	Tunneling     *Tunneling `json:"tunneling,omitempty"`
	PanelsBaseUID string     `json:"panelsBaseUid,omitempty"`
	DateSelector
}

// QueryPanelsRequest re-applies a date selector. ElementID, when set, names
// the panels base directly instead of resolving PanelsBase.
type QueryPanelsRequest struct {
	PanelsBase []SelectorNode  `json:"panelsBase"`
	ElementID  string          `json:"elementId,omitempty"`
	Nodes      FeatureSelector `json:"nodes"`
}

// PanelUIDs is a matched date picker panel serialized to registry uids.
type PanelUIDs struct {
	PreMonth  string   `json:"preMonth,omitempty"`
	YearMonth string   `json:"yearMonth"`
	NextMonth string   `json:"nextMonth,omitempty"`
	DateCells []string `json:"dateCells"`
}

// QueryPanelsResponse is either the single matched panel set or a tunneling envelope.
type QueryPanelsResponse struct {
	Tunneling *Tunneling  `json:"tunneling,omitempty"`
	Panels    []PanelUIDs `json:"panels,omitempty"`
}

// Tunneling carries an unresolved request into the nested frame at FrameIndex.
type Tunneling struct {
	FrameIndex int `json:"frameIndex"`
	Args       any `json:"args"`
}

// Bubbling carries a nested frame's result back to its parent.
type Bubbling struct {
	Args any `json:"args"`
}
