// Copyright © 2024 Ardentcraft.
//
// Package bih implements a bounding-interval hierarchy: a flat-array binary
// tree over axis-aligned boxes, split along each node's largest extent axis
// at the median of its children's centroids. It is the broad-phase index
// StaticMapTree builds once per map over its instance bounds (and WorldModel
// over a large mesh's triangles), letting a sweep or overlap query skip the
// vast majority of instances and triangles without visiting them.
//
// The node layout (Min/Max plus left/right/leafFirst/leafCount indices into
// a flat slice) and the median-split recursive builder are adapted from the
// teacher's bvh.TLASBuilder, generalized from single-item leaves to a
// leafSize threshold and from a ray/point-free builder to one that also
// supports ray and point queries.
package bih

import (
	"sort"

	"github.com/ardentcraft/worldphys/mathx"
)

// leafSize is the maximum number of items packed into a single leaf node
// before the builder keeps splitting. Small leaves mean more tree depth but
// cheaper per-node tests; this value follows common BVH/BIH practice.
const leafSize = 4

// node is one entry of the flat tree array. A node is a leaf when
// leafCount > 0, an interior node otherwise (left/right are indices into
// the same node slice; -1 marks "no child").
type node struct {
	bounds    mathx.AABox
	left      int32
	right     int32
	leafFirst int32
	leafCount int32
}

// Tree is a built bounding-interval hierarchy over a caller-supplied set of
// bounds. Tree is immutable once built — safe for concurrent queries.
type Tree struct {
	nodes []node
	// order maps a leaf's [leafFirst, leafFirst+leafCount) range to the
	// original index the caller's Bounds()/indexer supplied at Build time.
	order []int32
	// orderBounds is order's per-entry bounds, kept alongside it so
	// IntersectRay can reject individual leaf items against the current
	// search distance without calling out to the visitor.
	orderBounds []mathx.AABox
}

// item is the builder's working entry: the original caller index, the
// bounds, and a precomputed centroid.
type item struct {
	index    int32
	bounds   mathx.AABox
	centroid mathx.Vec3
}

// Build constructs a Tree over boxes, where boxes[i] is associated with
// caller index i. An empty input yields a Tree with a single empty-bounds
// leaf so queries against it trivially return nothing.
func Build(boxes []mathx.AABox) *Tree {
	items := make([]item, len(boxes))
	for i, b := range boxes {
		items[i] = item{index: int32(i), bounds: b, centroid: b.Center()}
	}
	t := &Tree{}
	if len(items) == 0 {
		t.nodes = []node{{left: -1, right: -1, leafFirst: 0, leafCount: 0}}
		return t
	}
	t.order = make([]int32, 0, len(items))
	t.orderBounds = make([]mathx.AABox, 0, len(items))
	t.build(items)
	return t
}

func (t *Tree) build(items []item) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{left: -1, right: -1})

	bounds := items[0].bounds
	for _, it := range items[1:] {
		bounds = bounds.Merge(it.bounds)
	}
	t.nodes[idx].bounds = bounds

	if len(items) <= leafSize {
		first := int32(len(t.order))
		for _, it := range items {
			t.order = append(t.order, it.index)
			t.orderBounds = append(t.orderBounds, it.bounds)
		}
		t.nodes[idx].leafFirst = first
		t.nodes[idx].leafCount = int32(len(items))
		return idx
	}

	extents := bounds.HalfExtents()
	axis := 0
	if extents.Y() > extents.X() {
		axis = 1
	}
	if extents.Z() > componentAt(extents, axis) {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return componentAt(items[i].centroid, axis) < componentAt(items[j].centroid, axis)
	})

	mid := len(items) / 2
	left := t.build(items[:mid])
	right := t.build(items[mid:])
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

func componentAt(v mathx.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}

// QueryAABB appends every caller index whose bounds may overlap box to dst
// and returns the extended slice. Like every Tree query, this is a
// broad-phase filter: callers still run a narrow-phase test against the
// returned candidates.
func (t *Tree) QueryAABB(box mathx.AABox, dst []int32) []int32 {
	if len(t.order) == 0 {
		return dst
	}
	return t.queryAABB(0, box, dst)
}

func (t *Tree) queryAABB(nodeIdx int32, box mathx.AABox, dst []int32) []int32 {
	n := &t.nodes[nodeIdx]
	if !n.bounds.Intersects(box) {
		return dst
	}
	if n.leafCount > 0 {
		for i := n.leafFirst; i < n.leafFirst+n.leafCount; i++ {
			dst = append(dst, t.order[i])
		}
		return dst
	}
	dst = t.queryAABB(n.left, box, dst)
	dst = t.queryAABB(n.right, box, dst)
	return dst
}

// IntersectPoint appends every caller index whose bounds contain p to dst
// and returns the extended slice.
func (t *Tree) IntersectPoint(p mathx.Vec3, dst []int32) []int32 {
	if len(t.order) == 0 {
		return dst
	}
	return t.intersectPoint(0, p, dst)
}

func (t *Tree) intersectPoint(nodeIdx int32, p mathx.Vec3, dst []int32) []int32 {
	n := &t.nodes[nodeIdx]
	if !n.bounds.Contains(p) {
		return dst
	}
	if n.leafCount > 0 {
		for i := n.leafFirst; i < n.leafFirst+n.leafCount; i++ {
			dst = append(dst, t.order[i])
		}
		return dst
	}
	dst = t.intersectPoint(n.left, p, dst)
	dst = t.intersectPoint(n.right, p, dst)
	return dst
}

// RayVisitor is called for every leaf item whose bounds the ray can reach
// within the current search distance. maxDist is shared, mutable search
// state: a visitor that finds a closer hit should shrink it (return a
// smaller value than it received) so sibling subtrees the ray can no
// longer reach within the new distance are pruned without being visited.
// index is the caller index originally passed to Build.
type RayVisitor func(index int32, maxDist float64) (newMaxDist float64)

// IntersectRay walks the tree in a near-to-far order (nearest child box
// first), calling visit for every leaf item whose box the ray enters
// before maxDist. This is the traversal StaticMapTree.IsInLineOfSight (and
// so SceneQuery.LineOfSight) uses: visit runs the narrow-phase ray test per
// candidate model instance and shrinks maxDist to the closest confirmed hit
// so far, letting the tree skip everything farther away.
func (t *Tree) IntersectRay(ray mathx.Ray, maxDist float64, visit RayVisitor) {
	if len(t.order) == 0 {
		return
	}
	t.intersectRay(0, ray, maxDist, visit)
}

func (t *Tree) intersectRay(nodeIdx int32, ray mathx.Ray, maxDist float64, visit RayVisitor) float64 {
	n := &t.nodes[nodeIdx]
	if _, _, ok := boxEntry(ray, n.bounds, maxDist); !ok {
		return maxDist
	}
	if n.leafCount > 0 {
		for i := n.leafFirst; i < n.leafFirst+n.leafCount; i++ {
			if _, _, ok := boxEntry(ray, t.orderBounds[i], maxDist); !ok {
				continue
			}
			maxDist = visit(t.order[i], maxDist)
		}
		return maxDist
	}

	leftDist, _, leftOK := boxEntry(ray, t.nodes[n.left].bounds, maxDist)
	rightDist, _, rightOK := boxEntry(ray, t.nodes[n.right].bounds, maxDist)
	first, second := n.left, n.right
	firstOK, secondOK := leftOK, rightOK
	if rightOK && (!leftOK || rightDist < leftDist) {
		first, second = n.right, n.left
		firstOK, secondOK = rightOK, leftOK
	}
	if firstOK {
		maxDist = t.intersectRay(first, ray, maxDist, visit)
	}
	if secondOK {
		maxDist = t.intersectRay(second, ray, maxDist, visit)
	}
	return maxDist
}

// boxEntry returns the ray's entry distance into box (clamped to 0 when
// the origin is already inside), and whether that entry happens at or
// before maxDist.
func boxEntry(ray mathx.Ray, box mathx.AABox, maxDist float64) (tmin, tmax float64, ok bool) {
	tmin, tmax, hit := ray.IntersectAABox(box)
	if !hit || tmax < 0 || tmin > maxDist {
		return tmin, tmax, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, tmax, true
}

// Len returns the number of items the tree was built over.
func (t *Tree) Len() int { return len(t.order) }
