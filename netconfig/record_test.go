// Copyright 2024 The rdi-netconfig Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netconfig

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func TestMergeSameInterface(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{Interface: "eth0", Autoconf: AutoconfOn}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}
	if err := s.Merge(&Record{Interface: "eth0", Hostname: "host", MTU: 9000}, 2); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	if len(s.Records) != 1 {
		t.Fatalf("Merge() produced %d records, want 1", len(s.Records))
	}
	rec := s.Records[0]
	if rec.Autoconf != AutoconfOn || rec.Hostname != "host" || rec.MTU != 9000 {
		t.Errorf("Merge() record = %+v, want autoconf on, hostname host, MTU 9000", rec)
	}
}

func TestMergeVlanSelectorsStayApart(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{Interface: "eth0", VlanID: 66, Legacy: true}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}
	if err := s.Merge(&Record{Interface: "eth0", VlanID: 67, Legacy: true}, 2); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	if len(s.Records) != 2 {
		t.Errorf("Merge() produced %d records, want 2 distinct VLAN selectors", len(s.Records))
	}
	if diff := cmp.Diff([]int{66, 67}, s.LegacyVlanIDs("eth0")); diff != "" {
		t.Errorf("LegacyVlanIDs(eth0) diff (-want +got):\n%s", diff)
	}
}

func TestMergeFreeRecordFansOut(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{Interface: "eth0"}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}
	if err := s.Merge(&Record{Interface: "eth1"}, 2); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	// The free record applies to every named record.
	if err := s.Merge(&Record{UseDNS: TriFalse, DNS1: []string{"9.9.9.9"}}, 3); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	if len(s.Records) != 2 {
		t.Fatalf("Merge() produced %d records, want 2", len(s.Records))
	}
	for _, rec := range s.Records {
		if rec.UseDNS != TriFalse {
			t.Errorf("record %q UseDNS = %v, want TriFalse", rec.Interface, rec.UseDNS)
		}
		if diff := cmp.Diff([]string{"9.9.9.9"}, rec.DNS1); diff != "" {
			t.Errorf("record %q DNS diff (-want +got):\n%s", rec.Interface, diff)
		}
	}
}

func TestMergeFreeRecordKeptAnonymous(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{DNS1: []string{"9.9.9.9"}}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	if len(s.Records) != 1 || s.Records[0].Interface != "" {
		t.Errorf("Merge() records = %+v, want one anonymous record", s.Records)
	}
}

func TestMergeGatewaySlots(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{Interface: "eth0", Gateway: "10.0.0.1"}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}
	if err := s.Merge(&Record{Interface: "eth0", Gateway: "10.0.0.2"}, 2); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}

	rec := s.Records[0]
	if rec.Gateway != "10.0.0.1" || rec.Gateway1 != "10.0.0.2" {
		t.Errorf("Merge() gateways = (%q, %q), want (10.0.0.1, 10.0.0.2)", rec.Gateway, rec.Gateway1)
	}

	err := s.Merge(&Record{Interface: "eth0", Gateway: "10.0.0.3"}, 3)
	if err == nil {
		t.Fatalf("Merge() succeeded with a third gateway, want error")
	}
	if !errors.Is(err, unix.E2BIG) {
		t.Errorf("Merge() = %v, want E2BIG", err)
	}
}

func TestMergeInterfaceCapacity(t *testing.T) {
	s := NewState(t.TempDir())

	for i := 0; i < MaxInterfaces; i++ {
		rec := &Record{Interface: fmt.Sprintf("eth%d", i)}
		if err := s.Merge(rec, i+1); err != nil {
			t.Fatalf("Merge() failed unexpectedly at record %d with error: %v", i, err)
		}
	}

	err := s.Merge(&Record{Interface: "one-too-many"}, MaxInterfaces+1)
	if err == nil {
		t.Fatalf("Merge() succeeded beyond capacity, want error")
	}
	if !errors.Is(err, unix.E2BIG) {
		t.Errorf("Merge() = %v, want E2BIG", err)
	}
}

func TestAddVLANOverflow(t *testing.T) {
	s := NewState(t.TempDir())

	// The historic overflow test caps the table one entry short of its
	// nominal capacity.
	for i := 1; i < MaxVLANs; i++ {
		if err := s.AddVLAN(i, fmt.Sprintf("vlan%d", i)); err != nil {
			t.Fatalf("AddVLAN(%d) failed unexpectedly with error: %v", i, err)
		}
	}

	err := s.AddVLAN(MaxVLANs, fmt.Sprintf("vlan%d", MaxVLANs))
	if err == nil {
		t.Fatalf("AddVLAN(%d) succeeded, want overflow error", MaxVLANs)
	}
	if !errors.Is(err, unix.E2BIG) {
		t.Errorf("AddVLAN(%d) = %v, want E2BIG", MaxVLANs, err)
	}

	if len(s.VLANs) != MaxVLANs-1 {
		t.Errorf("VLAN table has %d entries, want %d", len(s.VLANs), MaxVLANs-1)
	}
}

func TestAddVLANDuplicateID(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.AddVLAN(5, "vlan5"); err != nil {
		t.Fatalf("AddVLAN() failed unexpectedly with error: %v", err)
	}
	if err := s.AddVLAN(5, "othername"); err != nil {
		t.Fatalf("AddVLAN() failed unexpectedly with error: %v", err)
	}

	if len(s.VLANs) != 1 || s.VLANs[0].Name != "vlan5" {
		t.Errorf("VLAN table = %+v, want single entry named vlan5", s.VLANs)
	}
}

func TestMergeVlanRefsOverflow(t *testing.T) {
	s := NewState(t.TempDir())

	if err := s.Merge(&Record{Interface: "eth0"}, 1); err != nil {
		t.Fatalf("Merge() failed unexpectedly with error: %v", err)
	}
	for i := 0; i < 3; i++ {
		ref := &Record{Interface: "eth0", VlanRefs: []string{fmt.Sprintf("vlan%d", i+1)}}
		if err := s.Merge(ref, i+2); err != nil {
			t.Fatalf("Merge() failed unexpectedly at ref %d with error: %v", i, err)
		}
	}

	err := s.Merge(&Record{Interface: "eth0", VlanRefs: []string{"vlan4"}}, 5)
	if err == nil {
		t.Fatalf("Merge() succeeded with a fourth VLAN reference, want error")
	}
	if !errors.Is(err, unix.E2BIG) {
		t.Errorf("Merge() = %v, want E2BIG", err)
	}
}
