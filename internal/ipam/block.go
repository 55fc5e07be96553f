package ipam

import (
	"fmt"
)

// Addr is a single IPv4 host address held as its 32-bit value.
// Addresses order by integer value.
type Addr uint32

// Block is a CIDR prefix normalized to its canonical base address:
// every bit below the prefix boundary is zero.
type Block struct {
	Base   Addr
	Prefix int
}

// ParseAddr parses a dotted-quad IPv4 address into its 32-bit value.
func ParseAddr(s string) (Addr, error) {
	var v uint32
	octet := -1
	count := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if octet == -1 {
				octet = 0
			}
			octet = octet*10 + int(c-'0')
			if octet > 255 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
			}
		case c == '.':
			if octet == -1 || count == 3 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
			}
			v = v<<8 | uint32(octet)
			count++
			octet = -1
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
		}
	}

	if octet == -1 || count != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
	}
	return Addr(v<<8 | uint32(octet)), nil
}

// ParseCIDR parses "a.b.c.d/n" notation into a Block. The base is
// normalized to the canonical network address, so "192.168.1.77/24"
// parses to 192.168.1.0/24.
func ParseCIDR(s string) (Block, error) {
	slash := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return Block{}, fmt.Errorf("%w: %q has no prefix length", ErrInvalidCIDR, s)
	}

	base, err := ParseAddr(s[:slash])
	if err != nil {
		return Block{}, err
	}

	rest := s[slash+1:]
	if len(rest) == 0 || len(rest) > 2 {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
	}
	prefix := 0
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c < '0' || c > '9' {
			return Block{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
		}
		prefix = prefix*10 + int(c-'0')
	}
	if prefix > 32 {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, s)
	}

	return NewBlock(base, prefix), nil
}

// NewBlock builds a Block from any address inside the prefix, masking
// the host bits away to reach the canonical base.
func NewBlock(base Addr, prefix int) Block {
	return Block{Base: base & Addr(netMask(prefix)), Prefix: prefix}
}

// netMask returns the network mask for a prefix length. Shifting by 32
// yields zero in Go, so /0 maps to an all-host mask without a branch.
func netMask(prefix int) uint32 {
	return ^uint32(0) << (32 - uint(prefix))
}

// Size returns the total number of addresses covered by the block.
// The result is 64-bit because a /0 spans the full 2^32 space.
func (b Block) Size() uint64 {
	return uint64(1) << (32 - uint(b.Prefix))
}

// Broadcast returns the highest address of the block.
func (b Block) Broadcast() Addr {
	return b.Base | Addr(^netMask(b.Prefix))
}

// Contains reports whether the address falls inside the block.
func (b Block) Contains(a Addr) bool {
	return a >= b.Base && a <= b.Broadcast()
}

// HostRange returns the first and last assignable host addresses.
// Prefixes up to /30 reserve the network and broadcast addresses;
// a /31 point-to-point pair uses both addresses (RFC 3021) and a /32
// is the single host itself.
func (b Block) HostRange() (first, last Addr) {
	switch {
	case b.Prefix >= 32:
		return b.Base, b.Base
	case b.Prefix == 31:
		return b.Base, b.Base | 1
	default:
		return b.Base + 1, b.Broadcast() - 1
	}
}

// UsableHosts returns how many addresses the block can assign, with
// the same /31 and /32 rules as HostRange. Blocks whose prefix falls
// outside 0-32 report zero.
func (b Block) UsableHosts() int64 {
	switch {
	case b.Prefix < 0 || b.Prefix > 32:
		return 0
	case b.Prefix == 32:
		return 1
	case b.Prefix == 31:
		return 2
	default:
		return int64(b.Size()) - 2
	}
}

func (a Addr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(a>>24), byte(a>>16), byte(a>>8), byte(a))
}

func (b Block) String() string {
	return fmt.Sprintf("%s/%d", b.Base, b.Prefix)
}
