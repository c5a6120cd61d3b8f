package registry

import "github.com/golang/glog"

// treeNode is the minimal shape tree-level computation needs out of a
// Stage 4 member group.
type treeNode struct {
	MemberID       int64
	ParentMemberID *int64
}

// computeTreeLevels runs BFS from roots (parentMemberId null, or pointing
// outside the sibling set) per spec.md §4.G Stage 4. Roots get level 1,
// children level(parent)+1. On cycle, returns (nil, false): the caller
// must leave treeLevel=NULL for every member of the dimension rather than
// abort the build (spec.md §7, "Registry anomaly ... degrade gracefully").
func computeTreeLevels(dimensionHash string, nodes []treeNode) (map[int64]int, bool) {
	present := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.MemberID] = struct{}{}
	}

	children := make(map[int64][]int64)
	var roots []int64
	for _, n := range nodes {
		if n.ParentMemberID == nil {
			roots = append(roots, n.MemberID)
			continue
		}
		if _, ok := present[*n.ParentMemberID]; !ok {
			roots = append(roots, n.MemberID)
			continue
		}
		children[*n.ParentMemberID] = append(children[*n.ParentMemberID], n.MemberID)
	}

	levels := make(map[int64]int, len(nodes))
	queue := make([]int64, 0, len(roots))
	for _, r := range roots {
		levels[r] = 1
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if _, seen := levels[child]; seen {
				glog.Warningf("registry: cycle detected in dimension %s at member %d", dimensionHash, child)
				return nil, false
			}
			levels[child] = levels[cur] + 1
			queue = append(queue, child)
		}
	}

	if len(levels) != len(nodes) {
		glog.Warningf("registry: unreachable members in dimension %s (cycle not rooted), %d/%d reached", dimensionHash, len(levels), len(nodes))
		return nil, false
	}
	return levels, true
}
