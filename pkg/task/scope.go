package task

// Binding is one variable entry in a frame. Value holds the raw value
// template (exec variables are collapsed into literals at resolution time).
// Export, when set, names an environment variable that receives the resolved
// value in every spawned process.
type Binding struct {
	Value  string
	Export string
}

// Frame is one level of the scope chain: the variables a single command node
// contributes. Names are unique within a frame.
type Frame struct {
	bindings map[string]Binding
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{bindings: make(map[string]Binding)}
}

// Set creates or replaces a binding in this frame.
func (f *Frame) Set(name string, b Binding) {
	f.bindings[name] = b
}

// Get returns the binding for name, if present.
func (f *Frame) Get(name string) (Binding, bool) {
	b, ok := f.bindings[name]
	return b, ok
}

// Len returns the number of bindings in the frame.
func (f *Frame) Len() int {
	return len(f.bindings)
}

// Scope is an ordered chain of frames, innermost first. CLI-supplied
// overrides live in a synthetic frame that always wins, regardless of how
// many node frames are pushed afterwards.
//
// Scopes are cheap to extend: Push shares the ancestor frames, so a child
// scope never mutates its parent.
type Scope struct {
	overrides *Frame
	frames    []*Frame // innermost first
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Push returns a new scope with frame as the innermost node frame.
// The receiver is left untouched.
func (s *Scope) Push(frame *Frame) *Scope {
	frames := make([]*Frame, 0, len(s.frames)+1)
	frames = append(frames, frame)
	frames = append(frames, s.frames...)
	return &Scope{overrides: s.overrides, frames: frames}
}

// Bind creates or replaces a binding in the innermost frame, which is the
// synthetic override frame. Ancestor frames are never touched.
func (s *Scope) Bind(name, value string) {
	if s.overrides == nil {
		s.overrides = NewFrame()
	}
	s.overrides.Set(name, Binding{Value: value})
}

// Lookup walks the chain innermost-to-outermost and returns the first value
// bound to name. Overrides shadow everything.
func (s *Scope) Lookup(name string) (string, bool) {
	b, ok := s.LookupBinding(name)
	return b.Value, ok
}

// LookupBinding is Lookup with access to the full binding.
func (s *Scope) LookupBinding(name string) (Binding, bool) {
	if s.overrides != nil {
		if b, ok := s.overrides.Get(name); ok {
			return b, true
		}
	}
	for _, f := range s.frames {
		if b, ok := f.Get(name); ok {
			return b, true
		}
	}
	return Binding{}, false
}

// Exports maps environment variable names to the scope variable that feeds
// them. Shadowing applies: an inner frame exporting under the same variable
// name wins over an outer one. Values are resolved through the scope at use,
// so CLI overrides reach exported environment variables too.
func (s *Scope) Exports() map[string]string {
	out := make(map[string]string)
	seen := make(map[string]bool)
	for _, f := range s.frames {
		for name, b := range f.bindings {
			if seen[name] {
				continue
			}
			seen[name] = true
			if b.Export != "" {
				out[b.Export] = name
			}
		}
	}
	return out
}
