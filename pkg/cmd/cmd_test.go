package cmd

import (
	"context"
	"testing"
)

type stubCommand struct {
	name string
	ran  *[]string
}

func (s stubCommand) Name() string        { return s.name }
func (s stubCommand) Description() string { return "stub " + s.name }
func (s stubCommand) Run(context.Context, *Invocation) error {
	*s.ran = append(*s.ran, s.name)
	return nil
}

type extra interface{ Extra() string }

type extraCommand struct{ stubCommand }

func (extraCommand) Extra() string { return "extra" }

func tag(label string, trace *[]string) Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
			*trace = append(*trace, label)
			return c.Run(ctx, inv)
		})
	}
}

func TestApplyOrder(t *testing.T) {
	var trace []string
	c := Apply(stubCommand{name: "play", ran: &trace}, tag("inner", &trace), tag("outer", &trace))
	if err := c.Run(context.Background(), &Invocation{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"outer", "inner", "play"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
	if c.Name() != "play" {
		t.Fatalf("Name() = %q", c.Name())
	}
}

func TestRootAndAs(t *testing.T) {
	var trace []string
	inner := extraCommand{stubCommand{name: "skip", ran: &trace}}
	c := Apply(inner, tag("a", &trace), tag("b", &trace))

	if _, ok := Root(c).(extraCommand); !ok {
		t.Fatalf("Root() = %T", Root(c))
	}
	e, ok := As[extra](c)
	if !ok || e.Extra() != "extra" {
		t.Fatalf("As[extra]() = %v, %v", e, ok)
	}
	if _, ok := As[interface{ Missing() }](c); ok {
		t.Fatal("As() found a missing interface")
	}
}

func TestRegistry(t *testing.T) {
	var trace []string
	r := NewRegistry()
	r.Register(stubCommand{name: "skip", ran: &trace})
	r.Register(stubCommand{name: "list", ran: &trace})
	r.Register(stubCommand{name: "play", ran: &trace})

	all := r.GetAll()
	if len(all) != 3 || all[0].Name() != "list" || all[2].Name() != "skip" {
		t.Fatalf("GetAll() order wrong: %v", all)
	}
	if _, ok := r.Get("play"); !ok {
		t.Fatal("Get(play) not found")
	}
	r.Reset()
	if _, ok := r.Get("play"); ok {
		t.Fatal("Get(play) found after Reset")
	}
}
