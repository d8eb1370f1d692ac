package geometry

// Transformer maps between local, remote and virtual coordinates for one
// layout. It holds no state besides the layout and is safe for concurrent use.
type Transformer struct {
	layout Layout
}

// NewTransformer creates a transformer for the given layout
func NewTransformer(layout Layout) *Transformer {
	return &Transformer{layout: layout}
}

// Layout returns the layout the transformer was built with
func (t *Transformer) Layout() Layout {
	return t.layout
}

// Threshold returns the edge proximity in pixels
func (t *Transformer) Threshold() float64 {
	return t.layout.threshold()
}

// LocalToVirtual converts a point on this machine's screen into the virtual
// desktop. Only the adjacency axis moves, and only when this machine is the
// second screen of the pair.
func (t *Transformer) LocalToVirtual(p LocalPoint) VirtualPoint {
	v := VirtualPoint(p)
	if !t.layout.LocalFirst() {
		if t.layout.Horizontal() {
			v.X += float64(t.layout.Remote.Width)
		} else {
			v.Y += float64(t.layout.Remote.Height)
		}
	}
	return v
}

// VirtualToLocal is the inverse of LocalToVirtual
func (t *Transformer) VirtualToLocal(v VirtualPoint) LocalPoint {
	p := LocalPoint(v)
	if !t.layout.LocalFirst() {
		if t.layout.Horizontal() {
			p.X -= float64(t.layout.Remote.Width)
		} else {
			p.Y -= float64(t.layout.Remote.Height)
		}
	}
	return p
}

// RemoteToVirtual converts a point on the peer's screen into the virtual desktop.
func (t *Transformer) RemoteToVirtual(p LocalPoint) VirtualPoint {
	v := VirtualPoint(p)
	if t.layout.LocalFirst() {
		if t.layout.Horizontal() {
			v.X += float64(t.layout.Local.Width)
		} else {
			v.Y += float64(t.layout.Local.Height)
		}
	}
	return v
}

// VirtualToRemote converts a virtual point into the peer's pixel space,
// clamped onto the peer's screen.
func (t *Transformer) VirtualToRemote(v VirtualPoint) LocalPoint {
	p := LocalPoint(v)
	if t.layout.LocalFirst() {
		if t.layout.Horizontal() {
			p.X -= float64(t.layout.Local.Width)
		} else {
			p.Y -= float64(t.layout.Local.Height)
		}
	}
	r := t.layout.Remote
	return LocalPoint{
		X: clamp(p.X, 0, float64(r.Width)-1),
		Y: clamp(p.Y, 0, float64(r.Height)-1),
	}
}

// IsAtTransferEdge reports whether p is within the threshold of the local
// edge that hands control to the remote.
func (t *Transformer) IsAtTransferEdge(p LocalPoint) bool {
	th := t.layout.threshold()
	s := t.layout.Local
	switch t.layout.EdgeToRemote {
	case Left:
		return p.X <= th
	case Right:
		return p.X >= float64(s.Width)-th
	case Top:
		return p.Y <= th
	case Bottom:
		return p.Y >= float64(s.Height)-th
	}
	return false
}

// EntryOnRemote returns where the remote cursor should appear right after a
// handoff at p: the remote edge facing this machine, inset by the threshold,
// with the cross-axis coordinate carried over.
func (t *Transformer) EntryOnRemote(p LocalPoint) LocalPoint {
	th := t.layout.threshold()
	r := t.layout.Remote
	maxX := float64(r.Width) - 1
	maxY := float64(r.Height) - 1
	switch t.layout.EdgeToLocal {
	case Left:
		return LocalPoint{X: th, Y: clamp(p.Y, 0, maxY)}
	case Right:
		return LocalPoint{X: float64(r.Width) - th, Y: clamp(p.Y, 0, maxY)}
	case Top:
		return LocalPoint{X: clamp(p.X, 0, maxX), Y: th}
	case Bottom:
		return LocalPoint{X: clamp(p.X, 0, maxX), Y: float64(r.Height) - th}
	}
	return LocalPoint{X: clamp(p.X, 0, maxX), Y: clamp(p.Y, 0, maxY)}
}

// ReturnPosition returns where the local OS cursor reappears when control
// comes back from the remote. The point sits outside the edge zone by
// band+1 pixels so the next absolute sample does not bounce straight back.
func (t *Transformer) ReturnPosition(v VirtualPoint, band float64) LocalPoint {
	s := t.layout.Local
	maxX := float64(s.Width) - 1
	maxY := float64(s.Height) - 1
	p := t.VirtualToLocal(v)
	p.X = clamp(p.X, 0, maxX)
	p.Y = clamp(p.Y, 0, maxY)

	inset := t.layout.threshold() + band + 1
	switch t.layout.EdgeToRemote {
	case Left:
		p.X = clamp(inset, 0, maxX)
	case Right:
		p.X = clamp(maxX-inset, 0, maxX)
	case Top:
		p.Y = clamp(inset, 0, maxY)
	case Bottom:
		p.Y = clamp(maxY-inset, 0, maxY)
	}
	return p
}

// VirtualExtent returns the size of the virtual desktop: the sum of both
// screens along the adjacency axis and the larger of the two across it.
func (t *Transformer) VirtualExtent() (width, height float64) {
	l, r := t.layout.Local, t.layout.Remote
	if t.layout.Horizontal() {
		return float64(l.Width) + float64(r.Width), max(float64(l.Height), float64(r.Height))
	}
	return max(float64(l.Width), float64(r.Width)), float64(l.Height) + float64(r.Height)
}

// Clamp pins v inside [0, extent) on both axes.
func (t *Transformer) Clamp(v VirtualPoint) VirtualPoint {
	w, h := t.VirtualExtent()
	return VirtualPoint{
		X: clamp(v.X, 0, w-1),
		Y: clamp(v.Y, 0, h-1),
	}
}

// OnLocalSide reports whether v falls on this machine's screen. band moves
// the boundary that many pixels into the local screen; pass 0 for the plain
// boundary test.
func (t *Transformer) OnLocalSide(v VirtualPoint, band float64) bool {
	axis := v.Y
	if t.layout.Horizontal() {
		axis = v.X
	}
	if t.layout.LocalFirst() {
		return axis < t.layout.Local.extent(t.layout.Horizontal())-band
	}
	return axis >= t.layout.Remote.extent(t.layout.Horizontal())+band
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
