package navdata

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// NodeID identifies a node in the global node table and in tile copies.
type NodeID int64

// WayID identifies a way across every way table.
type WayID int64

// Texture coordinate constants shared by road triangulation, junction
// fans and seam stitching.
const (
	TexUVLeft   = -1.0
	TexUVRight  = 1.0
	TexUVUp     = 0.25
	TexUVCenter = 0.0
)

// Epsilon is the coordinate tolerance used by clipping and containment checks.
const Epsilon = 1e-5

// BoundaryBuffer keeps route points away from the map edge.
const BoundaryBuffer = 0.05

// Variant selects the 2D or 3D build of the map data.
type Variant string

const (
	Variant2D Variant = "2d"
	Variant3D Variant = "3d"
)

// DefaultUV returns the texture coordinate newly parsed nodes start with.
func (v Variant) DefaultUV() orb.Point {
	if v == Variant3D {
		return orb.Point{1, 1}
	}
	return orb.Point{-10000, -10000}
}

// WayType is the render category of a way
type WayType int

const (
	WayRoad WayType = iota
	WayParking
	WayBuilding
	WayInner
	WayPolygonOutline
	WayAreaOutline
	WayDefault
)

func (t WayType) String() string {
	switch t {
	case WayRoad:
		return "road"
	case WayParking:
		return "parking"
	case WayBuilding:
		return "building"
	case WayInner:
		return "inner"
	case WayPolygonOutline:
		return "polygon_outline"
	case WayAreaOutline:
		return "area_outline"
	}
	return "default"
}

// RoadType orders road classes from most to least major.
type RoadType int

const (
	RoadMotorway RoadType = iota
	RoadTrunk
	RoadPrimary
	RoadSecondary
	RoadOther
	RoadService
	RoadNone
)

// RoadTypeCount is the number of drawable road classes.
const RoadTypeCount = int(RoadNone)

func (t RoadType) String() string {
	switch t {
	case RoadMotorway:
		return "motorway"
	case RoadTrunk:
		return "trunk"
	case RoadPrimary:
		return "primary"
	case RoadSecondary:
		return "secondary"
	case RoadOther:
		return "other"
	case RoadService:
		return "service"
	}
	return "none"
}

// ParseRoadType maps a style table name back to a RoadType.
func ParseRoadType(s string) RoadType {
	for t := RoadMotorway; t < RoadNone; t++ {
		if t.String() == s {
			return t
		}
	}
	return RoadNone
}

// LOD is a level-of-detail bucket for labels and icons.
type LOD int

const (
	L0 LOD = iota
	L1
	L2
	L3
	L4
	L5
	L6
)

const (
	LODCount        = 7
	LabelLOD        = L4
	IconLOD         = L3
	AmenityLabelLOD = L3
)

// Node is a single vertex of the dataset. Tiles keep copies keyed by the
// same id rather than pointers into the global table.
type Node struct {
	ID        NodeID
	Coords    orb.Point
	Height    float64
	UV        orb.Point
	WayIDs    []WayID
	TileBound bool
	Index     uint32
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.WayIDs = append([]WayID(nil), n.WayIDs...)
	return &c
}

// HasWay reports whether the node belongs to the given way.
func (n *Node) HasWay(id WayID) bool {
	for _, w := range n.WayIDs {
		if w == id {
			return true
		}
	}
	return false
}

// Way is an ordered node sequence with its classification.
type Way struct {
	ID       WayID
	NodeIDs  []NodeID
	Tags     osm.Tags
	Name     string
	Type     WayType
	RoadType RoadType
	Width    float64

	Area         bool
	Inner        bool
	OneWay       bool
	// OnRoundabout is the junction=roundabout tag of a road. IsRoundabout
	// is reserved for synthesized intersection ways.
	OnRoundabout bool

	TileBound      bool
	IsIntersection bool
	IsRoundabout   bool
	IsFork         bool
}

// Clone returns a copy that shares tags but not the node list.
func (w *Way) Clone() *Way {
	c := *w
	c.NodeIDs = append([]NodeID(nil), w.NodeIDs...)
	return &c
}

// First returns the first node id of the way.
func (w *Way) First() NodeID { return w.NodeIDs[0] }

// Last returns the last node id of the way.
func (w *Way) Last() NodeID { return w.NodeIDs[len(w.NodeIDs)-1] }

// Reverse flips the node order in place.
func (w *Way) Reverse() {
	for i, j := 0, len(w.NodeIDs)-1; i < j; i, j = i+1, j-1 {
		w.NodeIDs[i], w.NodeIDs[j] = w.NodeIDs[j], w.NodeIDs[i]
	}
}

// Triangle is three node ids in render winding order.
type Triangle [3]NodeID

// ConvertedWay is a way in triangle list form.
type ConvertedWay struct {
	Way
	Triangles []Triangle
}

// Label is a road name placement.
type Label struct {
	Text               string
	Coords             orb.Point
	Rotation           float64
	Scale              float64
	WayID              WayID
	LOD                LOD
	DistToBoundary     float64
	DistToEndOfSegment float64
}

// Icon is a point-of-interest marker.
type Icon struct {
	Type   BuildingType
	Coords orb.Point
	Scale  float64
	LOD    LOD
}

// AmenityLabel is the name placed under an icon.
type AmenityLabel struct {
	Text     string
	Coords   orb.Point
	Rotation float64
	Scale    float64
	Icon     Icon
	LOD      LOD
}

// RouteData is one point of the planned route.
type RouteData struct {
	Point          orb.Point
	Rotation       float64
	DistanceToNext float64
	Name           string
}

// IntersectionData describes a resolved junction.
type IntersectionData struct {
	JunctionID NodeID
	// WayID is the synthesized intersection way, zero for 2-way junctions.
	WayID    WayID
	WayIDs   []WayID
	Fan      []Triangle
	MapBound bool
}

// BoundaryRef marks a tile road way that touches the exterior map edge.
type BoundaryRef struct {
	Consumed bool
	Index    int
}
