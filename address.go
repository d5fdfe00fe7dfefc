package lms

// Domain separation constants that go between the address and the
// hashed data.
const (
	D_PBLC = 0x8080
	D_MESG = 0x8181
	D_LEAF = 0x8282
	D_INTR = 0x8383
)

const (
	idLen = 16 // length of the key pair identifier I

	// I || u32(q)
	addrPrefixLen = idLen + 4

	// I || u32(q) || u16(i) || u8(j)
	chainAddrLen = addrPrefixLen + 3

	// I || u32(r) || u16(D)
	nodeAddrLen = addrPrefixLen + 2
)

// Prefix of every LMS and LM-OTS hash input: the key pair identifier I
// followed by a 32-bit index.  Depending on the hash, the index is the
// leaf q or the tree node r.
type address [addrPrefixLen]byte

func newAddress(id []byte, idx uint32) (addr address) {
	copy(addr[:idLen], id)
	addr.setIndex(idx)
	return
}

func (addr *address) setIndex(idx uint32) {
	encodeUint64Into(uint64(idx), addr[idLen:addrPrefixLen])
}

// Writes I || u32(idx) into buf.
func (addr *address) writeInto(buf []byte) {
	copy(buf[:addrPrefixLen], addr[:])
}

// Writes I || u32(idx) || u16(chain) || u8(step) into buf.
func (addr *address) writeChainInto(buf []byte, chain uint16, step uint8) {
	addr.writeInto(buf)
	encodeUint64Into(uint64(chain), buf[addrPrefixLen:addrPrefixLen+2])
	buf[addrPrefixLen+2] = step
}

// Writes I || u32(idx) || u16(d) into buf.
func (addr *address) writeDomainInto(buf []byte, d uint16) {
	addr.writeInto(buf)
	encodeUint64Into(uint64(d), buf[addrPrefixLen:nodeAddrLen])
}
