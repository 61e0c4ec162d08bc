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
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/uefi"
)

// Device path node types and sub types, from the UEFI specification.
const (
	typeHardware  = 0x01
	typeACPI      = 0x02
	typeMessaging = 0x03
	typeMedia     = 0x04
	typeEnd       = 0x7f

	subTypeMACAddr   = 0x0b
	subTypeIPv4      = 0x0c
	subTypeURI       = 0x18
	subTypeHardDrive = 0x01
	subTypeFilePath  = 0x04
)

// hardDriveNodeLen is the minimum length of a hard-drive node carrying a
// partition signature: the 24 byte fixed part, the 16 byte GUID and the two
// format/type bytes.
const hardDriveNodeLen = 42

// parseDevicePath walks the node sequence of a device path blob and fills
// the matching Source fields. The node lengths are untrusted: a length below
// the header size or past the end of the blob terminates the walk cleanly,
// and no byte past the declared blob end is ever read.
func parseDevicePath(p []byte, src *Source) error {
	for off := 0; off+4 <= len(p); {
		typ, sub := p[off], p[off+1]
		if typ == typeEnd {
			break
		}
		length := int(binary.LittleEndian.Uint16(p[off+2 : off+4]))
		if length < 4 || off+length > len(p) {
			break
		}
		node := p[off : off+length]
		off += length

		switch {
		case typ == typeMedia && sub == subTypeHardDrive:
			if length < hardDriveNodeLen {
				logger.Debugf("hard-drive node too short (%d bytes), skipping", length)
				continue
			}
			src.Device = partUUIDPath(efiGUIDString(node[24:40]))
		case typ == typeMedia && sub == subTypeFilePath:
			s, err := uefi.DecodeUTF16String(node[4:])
			if err != nil {
				return fmt.Errorf("malformed file-path node: %w", err)
			}
			src.Image = s
		case typ == typeMessaging && sub == subTypeURI:
			s, err := uefi.DecodeUTF16String(node[4:])
			if err != nil {
				return fmt.Errorf("malformed URI node: %w", err)
			}
			src.URL = s
		case typ == typeMessaging && sub == subTypeMACAddr:
			src.IsPXEBoot = true
		case typ == typeMessaging && sub == subTypeIPv4:
			// A zero remote address means the image was fetched via PXE.
			if length >= 12 && isZero(node[8:12]) {
				src.IsPXEBoot = true
			}
		case typ == typeHardware || typ == typeACPI:
			logger.Debugf("ignoring device path node type %#02x sub-type %#02x", typ, sub)
		default:
			logger.Debugf("unhandled device path node type %#02x sub-type %#02x", typ, sub)
		}
	}
	return nil
}

// efiGUIDString renders the 16 byte partition signature as a canonical
// lowercase UUID. The first three fields are stored little endian on disk.
func efiGUIDString(b []byte) string {
	d := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
	}
	d = append(d, b[8:16]...)

	u, err := uuid.FromBytes(d)
	if err != nil {
		return ""
	}
	return u.String()
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
