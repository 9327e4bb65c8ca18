package eutelescope

import "golang.org/x/exp/slices"

// NotExcludedPlanesIndices maps every plane index below nPlanes to its index
// among the retained planes, or -1 when the plane is excluded. A negative
// nPlanes gives an empty slice.
func NotExcludedPlanesIndices(excludedPlanes []int, nPlanes int) []int {
	nPlanes = max(nPlanes, 0)
	indices := make([]int, nPlanes)
	next := 0
	for plane := 0; plane < nPlanes; plane++ {
		if slices.Contains(excludedPlanes, plane) {
			indices[plane] = -1
			continue
		}
		indices[plane] = next
		next++
	}
	return indices
}
