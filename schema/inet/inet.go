// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package inet is a reference schema: IPv4, TCP and UDP headers, built
// directly on the cellforge cell model. It is a Go rendering of
// elfesteem's network/inet.py, illustrating bindings (bind_layers),
// bit-field headers, and an enum leaf; it is not part of the core engine.
package inet

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	cf "cellforge"
)

// ProtoNames maps the IANA protocol numbers this package dispatches on
// to their familiar names, mirroring inet.py's hardwired PROTO_NAMES
// fallback table (used there when /etc/protocols is unavailable).
var ProtoNames = func() *cf.NamedConstants {
	nc := cf.NewNamedConstants()
	nc.Add(0, "ip", "IP")
	nc.Add(1, "icmp", "ICMP")
	nc.Add(2, "igmp", "IGMP")
	nc.Add(6, "tcp", "TCP")
	nc.Add(17, "udp", "UDP")
	return nc
}()

func ipAddrLeaf() *cf.Descriptor {
	return cf.Int(4, false).WithEndian(binary.BigEndian)
}

// IPAddrString reads a dotted-quad leaf cell's current value as text.
func IPAddrString(c *cf.Cell) string {
	v, ok := c.Work().(int64)
	if !ok {
		return ""
	}
	u := uint32(v)
	return fmt.Sprintf("%d.%d.%d.%d", byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// SetIPAddrString sets a dotted-quad leaf cell from text.
func SetIPAddrString(c *cf.Cell, s string) error {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return fmt.Errorf("inet: malformed address %q", s)
	}
	var u uint32
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("inet: malformed address %q", s)
		}
		u = u<<8 | uint32(n)
	}
	return c.Unwork(int64(u))
}

// Checksum is the Internet checksum (RFC 1071), grounded on inet.py's
// checksum(): ones'-complement sum of 16-bit big-endian words, folded.
func Checksum(data []byte) uint16 {
	if len(data)%2 == 1 {
		padded := make([]byte, len(data)+1)
		copy(padded, data)
		data = padded
	}
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

// ipHeader is the fixed 20-byte IPv4 header, laid out exactly as
// elfesteem's IP._header: every field is cumulative (no explicit Offset),
// so the bit-fields (version/ihl, flags/frag) pack the way a C bitfield
// struct would. IP options are a non-goal here: the original's IPOptions
// union is commented out upstream for everything past EOL/NOP, and
// modelling it faithfully needs the reserved linear-rule solver (it
// constrains ihl against the options' packed length).
func ipHeader() *cf.Descriptor {
	return cf.Struct("IPHeader",
		cf.Field{Name: "version", Desc: cf.Bits(4).Default(int64(4))},
		cf.Field{Name: "ihl", Desc: cf.Bits(4).Default(int64(5))},
		cf.Field{Name: "tos", Desc: cf.U8().Default(int64(0))},
		cf.Field{Name: "len", Desc: cf.U16()},
		cf.Field{Name: "id", Desc: cf.U16().Default(int64(1))},
		cf.Field{Name: "flags", Desc: cf.Bits(3).Default(int64(0))},
		cf.Field{Name: "frag", Desc: cf.Bits(13).Default(int64(0))},
		cf.Field{Name: "ttl", Desc: cf.U8().Default(int64(64))},
		cf.Field{Name: "proto", Desc: cf.U8().WithEnum(ProtoNames).Default(int64(0))},
		cf.Field{Name: "chksum", Desc: cf.U16().Default(int64(0))},
		cf.Field{Name: "src", Desc: ipAddrLeaf()},
		cf.Field{Name: "dst", Desc: ipAddrLeaf().Default(int64(0x7f000001))},
	)
}

func tcpHeader() *cf.Descriptor {
	return cf.Struct("TCPHeader",
		cf.Field{Name: "sport", Desc: cf.U16().Default(int64(20))},
		cf.Field{Name: "dport", Desc: cf.U16().Default(int64(80))},
		cf.Field{Name: "seq", Desc: cf.U32().Default(int64(0))},
		cf.Field{Name: "ack", Desc: cf.U32().Default(int64(0))},
		cf.Field{Name: "dataofs", Desc: cf.Bits(4).Default(int64(5))},
		cf.Field{Name: "reserved", Desc: cf.Bits(3).Default(int64(0))},
		cf.Field{Name: "flags", Desc: cf.Bits(9).Default(int64(2))},
		cf.Field{Name: "window", Desc: cf.U16().Default(int64(8192))},
		cf.Field{Name: "chksum", Desc: cf.U16().Default(int64(0))},
		cf.Field{Name: "urgptr", Desc: cf.U16().Default(int64(0))},
	)
}

func udpHeader() *cf.Descriptor {
	return cf.Struct("UDPHeader",
		cf.Field{Name: "sport", Desc: cf.U16().Default(int64(53))},
		cf.Field{Name: "dport", Desc: cf.U16().Default(int64(53))},
		cf.Field{Name: "len", Desc: cf.U16()},
		cf.Field{Name: "chksum", Desc: cf.U16()},
	)
}

// TCP and UDP payload records: header plus a raw tail, so parsing an IP
// datagram always consumes the rest of the buffer as a defined cell.
func tcpRecord() *cf.Descriptor {
	return cf.Struct("TCP",
		cf.Field{Name: "header", Desc: tcpHeader()},
		cf.Field{Name: "payload", Desc: cf.VarWrap(cf.U8())},
	)
}

func udpRecord() *cf.Descriptor {
	return cf.Struct("UDP",
		cf.Field{Name: "header", Desc: udpHeader()},
		cf.Field{Name: "payload", Desc: cf.VarWrap(cf.U8())},
	)
}

func rawRecord() *cf.Descriptor {
	return cf.VarWrap(cf.U8())
}

// payloadBindings is the bind_layers equivalent: IP{frag:0, proto:6} binds
// to TCP, IP{frag:0, proto:17} binds to UDP, matching inet.py's two
// bind_layers(IP, ..., frag=0, proto=...) calls.
var payloadBindings = cf.NewBindings(rawRecord(),
	cf.Binding{Payload: tcpRecord(), When: map[string]any{"frag": int64(0), "proto": int64(6)}},
	cf.Binding{Payload: udpRecord(), When: map[string]any{"frag": int64(0), "proto": int64(17)}},
)

// IPDescriptor is the top-level IP datagram: a fixed header followed by a
// payload whose concrete type is selected from the header's proto field
// via payloadBindings.
func IPDescriptor() *cf.Descriptor {
	d := cf.Struct("IP",
		cf.Field{Name: "header", Desc: ipHeader()},
		cf.Field{Name: "payload", DescFn: payloadBindings.PayloadDescFn("header")},
	)
	return d
}

// NewIP creates an empty, undefined IP datagram cell ready for Unpack or
// Unwork.
func NewIP() *cf.Cell { return cf.Empty(IPDescriptor()) }

// BindPayload imputes ip's header fields (proto, frag) for the given
// payload descriptor, the construction-time half of bind_layers (§4.E):
// call this before setting ip's own fields so explicit values still win.
func BindPayload(ip *cf.Cell) error {
	parent := ip.Parent()
	if parent == nil {
		return nil
	}
	header := parent.Field("header")
	if header == nil {
		return nil
	}
	return payloadBindings.Impute(header, ip.Descriptor())
}

// FixChecksums recomputes and writes the IP header checksum (and, for TCP,
// its pseudo-header checksum) into an already-packed IP datagram. The
// cell model has no notion of a leaf computed from a sibling subtree's
// packed bytes, so — as in elfesteem's IPchecksum/TCPchecksum, which pack
// a scratch copy of the header to compute themselves — this is done as a
// pack-time fixup over the serialised bytes rather than inside the cell
// graph.
func FixChecksums(packed []byte) []byte {
	if len(packed) < 20 {
		return packed
	}
	out := append([]byte{}, packed...)
	out[10], out[11] = 0, 0
	cksum := Checksum(out[:20])
	binary.BigEndian.PutUint16(out[10:12], cksum)

	proto := out[9]
	payload := out[20:]
	switch proto {
	case 6:
		if len(payload) >= 20 {
			fixTCPChecksum(out[:20], payload)
		}
	}
	return out
}

func fixTCPChecksum(ipHeader, tcp []byte) {
	tcp[16], tcp[17] = 0, 0
	pseudo := make([]byte, 12)
	copy(pseudo[0:4], ipHeader[12:16])
	copy(pseudo[4:8], ipHeader[16:20])
	pseudo[9] = ipHeader[9]
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(tcp)))
	cksum := Checksum(append(pseudo, tcp...))
	binary.BigEndian.PutUint16(tcp[16:18], cksum)
}
