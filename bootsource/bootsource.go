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

// Package bootsource recovers the provenance of the booted binary from the
// firmware variables: an HTTP URL, a partition identifier or a PXE flag.
package bootsource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/uefi"
	"github.com/thkukuk/rdi-netconfig/utils"
)

const (
	// loaderGUID is the vendor GUID of the systemd-boot loader interface.
	loaderGUID = "4a67b082-0a4c-41cf-b6c7-440b29bb8c4f"

	// globalGUID is the GUID of the global EFI variables (BootCurrent,
	// BootOrder, Boot####).
	globalGUID = "8be4df61-93ca-11d2-aa0d-00e098032b8c"
)

// ErrNotFound tells a caller that a resolution strategy yielded nothing, as
// opposed to failing; the next strategy may still succeed.
var ErrNotFound = errors.New("boot source not found")

// Source describes how the currently running binary was booted. URL, Device
// and Image identify the boot medium; Device and Image can be set together
// when the binary was loaded from a file on a partition. The remaining fields
// are auxiliary. The value is owned by the caller.
type Source struct {
	// URL is the HTTP(S) location the image was fetched from.
	URL string `yaml:"url,omitempty"`

	// Device is the boot partition as a stable /dev/disk/by-partuuid path.
	Device string `yaml:"device,omitempty"`

	// Image is the path of the booted binary below the EFI system partition.
	Image string `yaml:"image,omitempty"`

	// Entry is the selected boot loader entry, if any.
	Entry string `yaml:"entry,omitempty"`

	// DefEFIPartition is the partition behind the first BootOrder entry.
	DefEFIPartition string `yaml:"def_efi_partition,omitempty"`

	// IsPXEBoot is set when the device path indicates a network boot.
	IsPXEBoot bool `yaml:"is_pxe_boot"`
}

// Resolve determines the boot source of the running system. The strategies
// are tried in order: the loader-stub variables, then the device path behind
// BootCurrent. The first BootOrder entry additionally supplies the default
// EFI partition when it can be read.
func Resolve(efivarsDir string) (*Source, error) {
	if err := uefi.Supported(efivarsDir); err != nil {
		return nil, err
	}

	src, err := fromLoaderVariables(efivarsDir)
	if errors.Is(err, ErrNotFound) {
		logger.Debugf("no loader-stub variables, falling back to BootCurrent")
		src, err = fromBootCurrent(efivarsDir)
	}
	if err != nil {
		return nil, err
	}

	if part, err := defaultEFIPartition(efivarsDir); err == nil {
		src.DefEFIPartition = part
	} else {
		logger.Debugf("no default EFI partition: %v", err)
	}

	return src, nil
}

// partUUIDPath renders a partition UUID as a stable device path.
func partUUIDPath(u string) string {
	return "/dev/disk/by-partuuid/" + strings.ToLower(u)
}

// readOptional reads a string variable, mapping a missing variable to the
// empty string.
func readOptional(dir, name, guid string) (string, error) {
	s, err := uefi.ReadStringVariable(uefi.VariableName{RootDir: dir, Name: name, GUID: guid})
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return "", nil
		}
		return "", err
	}
	return s, nil
}

// fromLoaderVariables resolves the boot source from the variables a loader
// stub such as systemd-boot leaves behind.
func fromLoaderVariables(dir string) (*Source, error) {
	src := &Source{}

	var err error
	if src.Entry, err = readOptional(dir, "LoaderEntrySelected", loaderGUID); err != nil {
		return nil, err
	}
	if src.URL, err = readOptional(dir, "LoaderDeviceURL", loaderGUID); err != nil {
		return nil, err
	}
	partUUID, err := readOptional(dir, "LoaderDevicePartUUID", loaderGUID)
	if err != nil {
		return nil, err
	}
	if src.Image, err = readOptional(dir, "LoaderImageIdentifier", loaderGUID); err != nil {
		return nil, err
	}

	if src.URL == "" && partUUID == "" {
		return nil, ErrNotFound
	}
	if partUUID != "" {
		src.Device = partUUIDPath(partUUID)
	}

	return src, nil
}

// fromBootCurrent resolves the boot source from the device path of the
// currently booted entry.
func fromBootCurrent(dir string) (*Source, error) {
	idx, err := readBootIndex(dir, "BootCurrent")
	if err != nil {
		return nil, err
	}
	return parseBootEntry(dir, idx)
}

// defaultEFIPartition returns the partition behind the first BootOrder
// entry, for secondary lookup purposes.
func defaultEFIPartition(dir string) (string, error) {
	idx, err := readBootIndex(dir, "BootOrder")
	if err != nil {
		return "", err
	}
	src, err := parseBootEntry(dir, idx)
	if err != nil {
		return "", err
	}
	if src.Device == "" {
		return "", ErrNotFound
	}
	return src.Device, nil
}

// readBootIndex reads the first little-endian 16 bit boot index of a
// variable (all of BootCurrent, or the head of BootOrder).
func readBootIndex(dir, name string) (uint16, error) {
	v, err := uefi.ReadVariable(uefi.VariableName{RootDir: dir, Name: name, GUID: globalGUID})
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if len(v.Content) < 2 {
		return 0, utils.Errnof(unix.EINVAL, "%s contains %d bytes, expected at least 2", name, len(v.Content))
	}
	return binary.LittleEndian.Uint16(v.Content), nil
}

// parseBootEntry parses the EFI load option of one Boot#### variable and
// walks its device path.
func parseBootEntry(dir string, idx uint16) (*Source, error) {
	name := fmt.Sprintf("Boot%04X", idx)
	v, err := uefi.ReadVariable(uefi.VariableName{RootDir: dir, Name: name, GUID: globalGUID})
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The load option starts with a 4 byte attribute field and the 2 byte
	// length of the file path list.
	data := v.Content
	if len(data) < 6 {
		return nil, utils.Errnof(unix.EINVAL, "%s contains %d bytes, too short for a load option", name, len(data))
	}
	pathLen := int(binary.LittleEndian.Uint16(data[4:6]))

	// Skip the NUL terminated UTF-16 description.
	off := 6
	for ; off+1 < len(data); off += 2 {
		if data[off] == 0 && data[off+1] == 0 {
			off += 2
			break
		}
	}

	blob := data[off:]
	if pathLen < len(blob) {
		blob = blob[:pathLen]
	}

	src := &Source{}
	if err := parseDevicePath(blob, src); err != nil {
		return nil, err
	}

	if src.URL == "" && src.Device == "" && src.Image == "" && !src.IsPXEBoot {
		return nil, ErrNotFound
	}
	return src, nil
}
