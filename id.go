package cluster

import "fmt"

const (
	zoomBits = 5
	zoomMask = 1<<zoomBits - 1

	// MaxSupportedZoom is the largest MaxZoom whose clusters still fit the id encoding,
	// clusters built at zoom z carry z+1 in the low bits.
	MaxSupportedZoom = zoomMask - 1
)

// ClusterID identifies a cluster.
// It packs the zoom level of the index the cluster originated from into the low 5 bits
// and the position of the originating point inside that index into the rest.
type ClusterID int

// NoParent marks points that were never merged into a coarser cluster.
const NoParent ClusterID = -1

// NewClusterID encodes a cluster id.
// Callers must keep originZoom inside [0, 31], Cluster validates that at build time.
func NewClusterID(originIndex, originZoom int) ClusterID {
	return ClusterID(originIndex<<zoomBits | originZoom&zoomMask)
}

// OriginZoom returns the zoom of the index that holds the cluster origin.
func (id ClusterID) OriginZoom() int {
	return int(id) & zoomMask
}

// OriginIndex returns the position of the cluster origin inside the OriginZoom index.
func (id ClusterID) OriginIndex() int {
	return int(id) >> zoomBits
}

func (id ClusterID) String() string {
	return fmt.Sprintf("%d(z%d#%d)", int(id), id.OriginZoom(), id.OriginIndex())
}

type refKind uint8

const (
	sourceRef refKind = iota
	clusterRef
)

// NodeRef is what an indexed node stands for: either an input point, addressed
// by its position in the input slice, or a synthesized cluster.
type NodeRef struct {
	kind  refKind
	value int
}

// SourceRef references the input point at index i.
func SourceRef(i int) NodeRef {
	return NodeRef{kind: sourceRef, value: i}
}

// ClusterRef references a cluster.
func ClusterRef(id ClusterID) NodeRef {
	return NodeRef{kind: clusterRef, value: int(id)}
}

// IsCluster reports whether the reference is a cluster.
func (r NodeRef) IsCluster() bool {
	return r.kind == clusterRef
}

// SourceIndex returns the input index of a source reference.
func (r NodeRef) SourceIndex() (int, bool) {
	if r.kind != sourceRef {
		return 0, false
	}
	return r.value, true
}

// ClusterID returns the id of a cluster reference.
func (r NodeRef) ClusterID() (ClusterID, bool) {
	if r.kind != clusterRef {
		return NoParent, false
	}
	return ClusterID(r.value), true
}
