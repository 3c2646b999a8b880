package sim

import (
	"strings"
	"testing"
)

func routingZones() (staffedA, staffedB, terminals *Zone) {
	staffedA = &Zone{
		Name: "hall-a", Kind: KindStaffed, Efficiency: 1.0,
		Pools: []*ResourcePool{NewResourcePool("counters-a", KindStaffed, 2)},
	}
	staffedB = &Zone{
		Name: "hall-b", Kind: KindStaffed, Efficiency: 1.0,
		Pools: []*ResourcePool{NewResourcePool("counters-b", KindStaffed, 2)},
	}
	terminals = &Zone{
		Name: "kiosks", Kind: KindSelfService, Efficiency: 1.0,
		Pools: []*ResourcePool{NewResourcePool("terminals", KindSelfService, 2)},
	}
	return staffedA, staffedB, terminals
}

func prefersStaffed(id int) *Customer {
	c := NewCustomer(id, 0)
	c.PreferredKind = KindStaffed
	return c
}

func prefersSelfService(id int) *Customer {
	c := NewCustomer(id, 0)
	c.PreferredKind = KindSelfService
	return c
}

func TestStaticPolicy_RoutesByPreferredKind(t *testing.T) {
	staffedA, staffedB, terminals := routingZones()
	zones := []*Zone{staffedA, staffedB, terminals}
	policy := &StaticPolicy{}

	d := policy.Route(prefersStaffed(1), zones)
	if d.Zone != staffedA {
		t.Errorf("Staffed preferrer routed to %s, want hall-a", d.Zone.Name)
	}

	d = policy.Route(prefersSelfService(2), zones)
	if d.Zone != terminals {
		t.Errorf("Self-service preferrer routed to %s, want kiosks", d.Zone.Name)
	}
}

func TestStaticPolicy_IgnoresLoad(t *testing.T) {
	staffedA, staffedB, terminals := routingZones()
	zones := []*Zone{staffedA, staffedB, terminals}
	policy := &StaticPolicy{}

	// Saturate the first staffed zone. Static must still pick it.
	staffedA.Pools[0].Seat(0)
	staffedA.Pools[0].Seat(0)
	staffedA.Pools[0].EnqueueWaiting(NewCustomer(99, 0), 0)

	d := policy.Route(prefersStaffed(1), zones)
	if d.Zone != staffedA {
		t.Errorf("Static routed to %s under load, want hall-a regardless", d.Zone.Name)
	}
	if d.Loads != nil {
		t.Error("Static decisions should not carry a load snapshot")
	}
}

func TestStaticPolicy_NoZoneOfKind_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Route with no zone of the preferred kind should panic")
		}
	}()
	staffedA, _, _ := routingZones()
	policy := &StaticPolicy{}
	policy.Route(prefersSelfService(1), []*Zone{staffedA})
}

func TestBeePolicy_PicksLeastLoadedZone(t *testing.T) {
	staffedA, staffedB, terminals := routingZones()
	zones := []*Zone{staffedA, staffedB, terminals}
	policy := &BeePolicy{}

	// hall-a: 2 busy of 2 (load 1.0); hall-b idle (load 0).
	staffedA.Pools[0].Seat(0)
	staffedA.Pools[0].Seat(0)

	d := policy.Route(prefersStaffed(1), zones)
	if d.Zone != staffedB {
		t.Errorf("Bee routed to %s, want hall-b", d.Zone.Name)
	}
	if !strings.HasPrefix(d.Reason, "bee-least-loaded") {
		t.Errorf("Reason = %q, want bee-least-loaded prefix", d.Reason)
	}
}

func TestBeePolicy_LoadSnapshot(t *testing.T) {
	staffedA, staffedB, _ := routingZones()
	zones := []*Zone{staffedA, staffedB}
	policy := &BeePolicy{}

	staffedA.Pools[0].Seat(0)

	d := policy.Route(prefersStaffed(1), zones)
	if len(d.Loads) != 2 {
		t.Fatalf("Loads has %d entries, want 2", len(d.Loads))
	}
	if d.Loads["hall-a"] != 0.5 {
		t.Errorf("Loads[hall-a] = %f, want 0.5", d.Loads["hall-a"])
	}
	if d.Loads["hall-b"] != 0 {
		t.Errorf("Loads[hall-b] = %f, want 0", d.Loads["hall-b"])
	}
}

func TestBeePolicy_StaffedPreferrer_NeverUsesTerminals(t *testing.T) {
	staffedA, _, terminals := routingZones()
	zones := []*Zone{staffedA, terminals}
	policy := &BeePolicy{}

	// Staffed zone saturated, terminals idle. A staffed preferrer already
	// declined the terminal, so bee must keep them in the staffed zone.
	staffedA.Pools[0].Seat(0)
	staffedA.Pools[0].Seat(0)

	d := policy.Route(prefersStaffed(1), zones)
	if d.Zone != staffedA {
		t.Errorf("Staffed preferrer routed to %s, want hall-a", d.Zone.Name)
	}
}

func TestBeePolicy_SelfServicePreferrer_OverflowsToStaffed(t *testing.T) {
	staffedA, _, terminals := routingZones()
	zones := []*Zone{staffedA, terminals}
	policy := &BeePolicy{}

	// Terminals saturated, staffed idle: the adopter overflows.
	terminals.Pools[0].Seat(0)
	terminals.Pools[0].Seat(0)

	d := policy.Route(prefersSelfService(1), zones)
	if d.Zone != staffedA {
		t.Errorf("Adopter under terminal saturation routed to %s, want hall-a", d.Zone.Name)
	}
}

func TestBeePolicy_TieBreak_PreferredKindFirst(t *testing.T) {
	staffedA, _, terminals := routingZones()
	zones := []*Zone{staffedA, terminals}
	policy := &BeePolicy{}

	// Both zones idle (load 0): the adopter's tie resolves to the preferred
	// kind because those candidates come first and the comparison is strict.
	d := policy.Route(prefersSelfService(1), zones)
	if d.Zone != terminals {
		t.Errorf("Idle tie routed to %s, want kiosks", d.Zone.Name)
	}
}

func TestBeePolicy_TieBreak_DeclarationOrder(t *testing.T) {
	staffedA, staffedB, _ := routingZones()
	zones := []*Zone{staffedA, staffedB}
	policy := &BeePolicy{}

	// Equal loads resolve to the first declared zone.
	d := policy.Route(prefersStaffed(1), zones)
	if d.Zone != staffedA {
		t.Errorf("Equal-load tie routed to %s, want hall-a", d.Zone.Name)
	}
}

func TestBeePolicy_NoCompatibleZones_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Route with no compatible zones should panic")
		}
	}()
	_, _, terminals := routingZones()
	policy := &BeePolicy{}
	policy.Route(prefersStaffed(1), []*Zone{terminals})
}

func TestNewRoutingPolicy(t *testing.T) {
	if _, ok := NewRoutingPolicy("").(*StaticPolicy); !ok {
		t.Error("Empty policy name should default to static")
	}
	if _, ok := NewRoutingPolicy(PolicyStatic).(*StaticPolicy); !ok {
		t.Error("NewRoutingPolicy(static) should return *StaticPolicy")
	}
	if _, ok := NewRoutingPolicy(PolicyBee).(*BeePolicy); !ok {
		t.Error("NewRoutingPolicy(bee) should return *BeePolicy")
	}
}

func TestNewRoutingPolicy_Unknown_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Unknown policy name should panic")
		}
	}()
	NewRoutingPolicy("ant")
}

func TestIsValidRoutingPolicy(t *testing.T) {
	for _, name := range []string{"", "static", "bee"} {
		if !IsValidRoutingPolicy(name) {
			t.Errorf("IsValidRoutingPolicy(%q) = false, want true", name)
		}
	}
	if IsValidRoutingPolicy("ant") {
		t.Error("IsValidRoutingPolicy(ant) = true, want false")
	}
}
