// Package canopy is a multi-threaded retained scene graph for real-time
// interactive applications.
//
// Canopy tracks a hierarchy of drawables, propagates invalidation through it
// incrementally, snapshots it into immutable draw-node trees on an update
// thread, and hands each snapshot to an independent draw thread through a
// triple buffer, so a stalled updater never wedges the drawer, and vice
// versa.
//
// # Quick start
//
// A [GameHost] owns the threads and wiring. Give it a [Window] and a
// [Renderer] (tests and tools can use [HeadlessWindow] and [NullRenderer];
// desktop apps use the ebitenhost subpackage):
//
//	host := canopy.NewGameHost(window, renderer, canopy.HostConfig{})
//	err := host.Run(game)
//
// The game's Load callback receives the host and builds the scene under
// [GameHost.Root]:
//
//	box := canopy.NewBox("player", canopy.Vec2{X: 32, Y: 32})
//	box.SetPosition(100, 50)
//	host.Root().Add(box)
//
// # Scene graph
//
// Every visual element is a [Drawable]. Drawables form a tree; children
// inherit their parent's transform and alpha. Property setters invalidate
// exactly the derived state they affect, and invalidation propagates to
// ancestors only while something actually changed.
//
// The tree is owned by the update thread. To mutate it from anywhere else,
// go through [GameHost.Schedule] or a [Scheduler]; in debug mode
// ([SetDebugMode]) off-thread mutation panics.
//
// # Draw pipeline
//
// Once per update frame the root produces a [DrawNode] tree via
// [Drawable.GenerateDrawNodeSubtree]. Unchanged drawables hand out the same
// node instance as the previous frame, so a static scene allocates nothing.
// The finished tree is published through a [TripleBuffer]; the draw thread
// picks up the newest complete tree and replays it against the [Renderer].
//
// Drawables with a lifetime window ([Drawable.SetLifetime]) drop out of the
// pipeline outside their window and return when time re-enters it, without
// leaving the tree.
package canopy
