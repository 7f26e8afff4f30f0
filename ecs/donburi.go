// Package ecs provides ECS adapters for canopy's frame pipeline.
//
// The primary adapter is [NewDonburiSink], which publishes each completed
// update frame into a [Donburi] world as a typed event, so ECS systems can
// run in lockstep with the scene graph. Subscribe to [FrameEventType] in
// your systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	host.SetFrameSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// FrameEventType is the Donburi event type for completed canopy update
// frames. Subscribe to this in your ECS systems and drive them from the
// frame's timing.
var FrameEventType = events.NewEventType[canopy.FrameInfo]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates a FrameSink backed by a Donburi world. Frames are
// published to FrameEventType and can be consumed with Subscribe and
// ProcessEvents. Note that EmitFrame runs on the update thread; process the
// queued events from wherever your ECS ticks.
func NewDonburiSink(world donburi.World) canopy.FrameSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitFrame(frame canopy.FrameInfo) {
	FrameEventType.Publish(s.world, frame)
}
