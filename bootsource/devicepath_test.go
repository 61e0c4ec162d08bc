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

package bootsource

import (
	"testing"
)

func TestParseDevicePathStopsAtEndNode(t *testing.T) {
	blob := append(endNode(), hardDriveNode(diskGUID)...)

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		t.Fatalf("parseDevicePath() failed unexpectedly with error: %v", err)
	}
	if src.Device != "" {
		t.Errorf("parseDevicePath() read past the end node, Device = %q", src.Device)
	}
}

func TestParseDevicePathRejectsShortLength(t *testing.T) {
	// A node declaring less than its own header size terminates the walk.
	blob := []byte{typeMedia, subTypeHardDrive, 3, 0, 0xde, 0xad}

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		t.Fatalf("parseDevicePath() failed unexpectedly with error: %v", err)
	}
	if src.Device != "" || src.IsPXEBoot {
		t.Errorf("parseDevicePath() = %+v, want nothing parsed", src)
	}
}

func TestParseDevicePathRejectsOverrun(t *testing.T) {
	// A node longer than the remaining blob terminates the walk cleanly.
	blob := []byte{typeMessaging, subTypeMACAddr, 0xff, 0x00, 1, 2, 3}

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		t.Fatalf("parseDevicePath() failed unexpectedly with error: %v", err)
	}
	if src.IsPXEBoot {
		t.Errorf("parseDevicePath() parsed an overrunning node")
	}
}

func TestParseDevicePathShortHardDrive(t *testing.T) {
	// A hard-drive node below the signature length is skipped, later nodes
	// still parse.
	short := node(typeMedia, subTypeHardDrive, make([]byte, 8))
	blob := append(short, append(node(typeMessaging, subTypeMACAddr, make([]byte, 33)), endNode()...)...)

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		t.Fatalf("parseDevicePath() failed unexpectedly with error: %v", err)
	}
	if src.Device != "" {
		t.Errorf("parseDevicePath() Device = %q, want empty for short node", src.Device)
	}
	if !src.IsPXEBoot {
		t.Errorf("parseDevicePath() skipped the nodes after a short hard-drive node")
	}
}

func TestParseDevicePathIgnoresHardwareNodes(t *testing.T) {
	blob := append(node(typeHardware, 0x01, make([]byte, 4)),
		append(node(typeACPI, 0x01, make([]byte, 8)),
			append(hardDriveNode(diskGUID), endNode()...)...)...)

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		t.Fatalf("parseDevicePath() failed unexpectedly with error: %v", err)
	}
	if src.Device != "/dev/disk/by-partuuid/"+wantGUID {
		t.Errorf("parseDevicePath() Device = %q, want %q", src.Device, "/dev/disk/by-partuuid/"+wantGUID)
	}
}

func TestEFIGUIDString(t *testing.T) {
	if got := efiGUIDString(diskGUID); got != wantGUID {
		t.Errorf("efiGUIDString() = %q, want %q", got, wantGUID)
	}

	// All zeroes is still a valid rendering.
	if got := efiGUIDString(make([]byte, 16)); got != "00000000-0000-0000-0000-000000000000" {
		t.Errorf("efiGUIDString(zero) = %q", got)
	}
}
