package cull

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	octreeLeafSize = 16
	octreeMaxDepth = 8
)

// octNode bounds are the tight union of the boxes stored beneath the node.
type octNode struct {
	bounds   common.AABB
	items    []int
	children []*octNode
}

// buildOctree partitions object indices by box center into a tree of at most octreeMaxDepth levels.
func buildOctree(boxes []common.AABB) *octNode {
	if len(boxes) == 0 {
		return nil
	}
	items := make([]int, len(boxes))
	region := boxes[0]
	for i := range boxes {
		items[i] = i
		region = region.Union(boxes[i])
	}
	return buildNode(boxes, items, region, 0)
}

func buildNode(boxes []common.AABB, items []int, region common.AABB, depth int) *octNode {
	n := &octNode{bounds: boxes[items[0]]}
	for _, i := range items[1:] {
		n.bounds = n.bounds.Union(boxes[i])
	}
	if len(items) <= octreeLeafSize || depth >= octreeMaxDepth {
		n.items = items
		return n
	}

	center := region.Center()
	var buckets [8][]int
	for _, i := range items {
		c := boxes[i].Center()
		oct := 0
		for axis := 0; axis < 3; axis++ {
			if c[axis] >= center[axis] {
				oct |= 1 << axis
			}
		}
		buckets[oct] = append(buckets[oct], i)
	}

	for oct, bucket := range buckets {
		if len(bucket) == len(items) {
			// every center landed in one octant; splitting further cannot separate them
			n.items = items
			return n
		}
		if len(bucket) == 0 {
			continue
		}
		n.children = append(n.children, buildNode(boxes, bucket, region.Octant(oct), depth+1))
	}
	return n
}

// collect appends every index stored beneath n.
func (n *octNode) collect(out []int) []int {
	out = append(out, n.items...)
	for _, c := range n.children {
		out = c.collect(out)
	}
	return out
}

// query marks every object that passes the frustum test. Whole subtrees are accepted when their
// bounds are fully inside and rejected when fully outside. It returns the number of nodes visited.
func (n *octNode) query(f *common.Frustum, eye mgl32.Vec3, boxes []common.AABB, visible []bool) int {
	visited := 1
	switch f.ClassifyAABB(n.bounds) {
	case common.Inside:
		for _, i := range n.collect(nil) {
			visible[i] = true
		}
		return visited
	case common.Outside:
		if !n.bounds.ContainsPoint(eye) {
			return visited
		}
	}

	for _, i := range n.items {
		visible[i] = frustumKeeps(f, eye, boxes[i])
	}
	for _, c := range n.children {
		visited += c.query(f, eye, boxes, visible)
	}
	return visited
}
