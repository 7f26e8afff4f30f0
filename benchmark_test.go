package canopy

import (
	"fmt"
	"testing"
	"time"
)

// buildBenchTree creates a root with breadth top-level containers of breadth
// boxes each.
func buildBenchTree(breadth int) *Drawable {
	root := NewContainer("root")
	for i := 0; i < breadth; i++ {
		group := NewContainer(fmt.Sprintf("group%d", i))
		for j := 0; j < breadth; j++ {
			group.Add(NewBox(fmt.Sprintf("box%d_%d", i, j), Vec2{10, 10}))
		}
		root.Add(group)
	}
	return root
}

func BenchmarkUpdateSubTreeSteadyState(b *testing.B) {
	root := buildBenchTree(32) // 1024 leaves
	root.UpdateSubTree(frame(1))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.UpdateSubTree(frameAt(uint64(i)+2, float64(i)))
	}
}

func BenchmarkGenerateUnchangedSubtree(b *testing.B) {
	root := buildBenchTree(32)
	root.UpdateSubTree(frame(1))
	root.GenerateDrawNodeSubtree(1, 0, false)
	root.GenerateDrawNodeSubtree(2, 1, false)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		frameIndex := uint64(i) + 3
		root.GenerateDrawNodeSubtree(frameIndex, int(frameIndex%2), false)
	}
}

func BenchmarkGenerateAfterLeafChange(b *testing.B) {
	root := buildBenchTree(32)
	root.UpdateSubTree(frame(1))
	root.GenerateDrawNodeSubtree(1, 0, false)
	root.GenerateDrawNodeSubtree(2, 1, false)
	leaf := root.ChildAt(0).ChildAt(0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		leaf.SetPosition(float64(i), 0)
		frameIndex := uint64(i) + 3
		root.GenerateDrawNodeSubtree(frameIndex, int(frameIndex%2), false)
	}
}

func BenchmarkTripleBufferExchange(b *testing.B) {
	buf := NewTripleBuffer[int]()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := buf.GetForWrite()
		w.Value = i
		w.Release()
		r := buf.GetForRead(time.Second)
		r.Release()
	}
}

func BenchmarkWorldTransformInvalidateRecompute(b *testing.B) {
	root := NewContainer("root")
	mid := NewContainer("mid")
	leaf := NewBox("leaf", Vec2{10, 10})
	root.Add(mid)
	mid.Add(leaf)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.SetPosition(float64(i), 0)
		leaf.WorldTransform()
	}
}
