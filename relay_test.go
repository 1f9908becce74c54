package hotswap

import "testing"

func TestPropertyRelayReadsLiveTarget(t *testing.T) {
	inst := NewStubInstance("v1", map[string]any{"count": 1})
	relay := NewPropertyRelay(func() Instance { return inst }, "count")

	v, ok := relay.Get("count")
	if !ok {
		t.Fatal("Get(count) reported missing")
	}
	if v != 1 {
		t.Errorf("Get(count) = %v, want 1", v)
	}
}

func TestPropertyRelayWithoutTarget(t *testing.T) {
	relay := NewPropertyRelay(func() Instance { return nil }, "count")

	if v, ok := relay.Get("count"); ok || v != nil {
		t.Errorf("Get without target = (%v, %v), want (nil, false)", v, ok)
	}
	// Writes without a target must be silent no-ops.
	relay.Set("count", 5)
}

func TestPropertyRelayUnknownName(t *testing.T) {
	inst := NewStubInstance("v1", map[string]any{"count": 1})
	relay := NewPropertyRelay(func() Instance { return inst }, "count")

	if _, ok := relay.Get("hidden"); ok {
		t.Error("Get exposed a name outside the fixed set")
	}
	relay.Set("hidden", 9)
	if _, ok := inst.Get("hidden"); ok {
		t.Error("Set wrote a name outside the fixed set")
	}
}

func TestPropertyRelaySetWritesInternalField(t *testing.T) {
	inst := NewStubInstance("v1", map[string]any{"count": 1})
	relay := NewPropertyRelay(func() Instance { return inst }, "count")

	relay.Set("count", 7)
	if v, _ := inst.Get("count"); v != 7 {
		t.Errorf("count = %v, want 7", v)
	}
	if inst.SetCalls != 0 {
		t.Errorf("relay writes must bypass the public Set path, got %d Set calls", inst.SetCalls)
	}
}

func TestPropertyRelayFollowsInstanceSwap(t *testing.T) {
	current := Instance(NewStubInstance("v1", map[string]any{"count": 1}))
	relay := NewPropertyRelay(func() Instance { return current }, "count")

	current = NewStubInstance("v2", map[string]any{"count": 2})
	v, _ := relay.Get("count")
	if v != 2 {
		t.Errorf("Get(count) after swap = %v, want 2", v)
	}
}

func TestCallRelayForwardsWithHooks(t *testing.T) {
	inst := NewStubInstance("v1", map[string]any{"count": 1})
	var order []string
	relay := NewCallRelay(func() Instance { return inst },
		CallSpec{
			Name: "bump",
			Invoke: func(target Instance, args []any) any {
				order = append(order, "invoke")
				v, _ := target.Get("count")
				return v.(int) + 1
			},
			Before: func(name string, args []any) { order = append(order, "before") },
			After:  func(name string, args []any) { order = append(order, "after") },
		})

	result := relay.Call("bump")
	if result != 2 {
		t.Errorf("Call(bump) = %v, want 2", result)
	}
	want := []string{"before", "invoke", "after"}
	if len(order) != len(want) {
		t.Fatalf("hook order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hook order = %v, want %v", order, want)
		}
	}
}

func TestCallRelayWithoutTargetIsNoOp(t *testing.T) {
	called := false
	relay := NewCallRelay(func() Instance { return nil },
		CallSpec{
			Name: "bump",
			Invoke: func(target Instance, args []any) any {
				called = true
				return nil
			},
			Before: func(name string, args []any) { called = true },
		})

	if result := relay.Call("bump"); result != nil {
		t.Errorf("Call without target = %v, want nil", result)
	}
	if called {
		t.Error("hooks or invoke ran without a target")
	}
}

func TestCallRelayUnknownName(t *testing.T) {
	inst := NewStubInstance("v1", nil)
	relay := NewCallRelay(func() Instance { return inst })

	if result := relay.Call("missing"); result != nil {
		t.Errorf("Call(missing) = %v, want nil", result)
	}
}

func TestCallRelayFollowsInstanceSwap(t *testing.T) {
	current := Instance(NewStubInstance("v1", map[string]any{"who": "v1"}))
	relay := NewCallRelay(func() Instance { return current },
		CallSpec{
			Name: "who",
			Invoke: func(target Instance, args []any) any {
				v, _ := target.Get("who")
				return v
			},
		})

	if got := relay.Call("who"); got != "v1" {
		t.Errorf("Call(who) = %v, want v1", got)
	}
	current = NewStubInstance("v2", map[string]any{"who": "v2"})
	if got := relay.Call("who"); got != "v2" {
		t.Errorf("Call(who) after swap = %v, want v2", got)
	}
}

func TestCallRelayAddRemove(t *testing.T) {
	inst := NewStubInstance("v1", nil)
	relay := NewCallRelay(func() Instance { return inst })

	relay.Add(CallSpec{Name: "extra", Invoke: func(Instance, []any) any { return "x" }})
	if !relay.Has("extra") {
		t.Fatal("Add did not register the entry")
	}
	if got := relay.Call("extra"); got != "x" {
		t.Errorf("Call(extra) = %v, want x", got)
	}
	relay.Remove("extra")
	if relay.Has("extra") {
		t.Error("Remove left the entry registered")
	}
}
