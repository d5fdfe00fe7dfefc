package lms

import (
	"fmt"
)

// LM-OTS algorithm type as it appears on the wire.
type OtsType uint32

// LMS algorithm type as it appears on the wire.
type LmsType uint32

// Parameters of an LM-OTS one-time signature scheme
type OtsParams struct {
	Type OtsType
	Hash HashMode // hash function H
	N    uint32   // length of hashes in bytes
	W    uint32   // Winternitz parameter: bits per digit

	U      uint32 // number of digits of the message hash
	V      uint32 // number of digits of the checksum
	P      uint32 // number of chains: U + V
	Ls     uint32 // left shift applied to the checksum
	SigLen uint32 // length of a signature including its type
}

// Parameters of an LMS instance
type Params struct {
	Type LmsType
	Hash HashMode // hash function H
	M    uint32   // length of tree nodes in bytes
	H    uint32   // height of the tree
}

// Entry in the registry of LM-OTS algorithms
type otsRegEntry struct {
	name      string
	supported bool
	params    OtsParams
}

// Entry in the registry of LMS algorithms
type lmsRegEntry struct {
	name      string
	supported bool
	params    Params
}

// Registry of LM-OTS algorithms from RFC 8554 and NIST SP 800-208.
// The derived fields (U, V, P, Ls, SigLen) are filled in by init().
// Width 1 is not supported.
var otsRegistry []otsRegEntry = []otsRegEntry{
	{"LMOTS_SHA256_N32_W1", false, OtsParams{Type: 0x01, Hash: SHA256, N: 32, W: 1}},
	{"LMOTS_SHA256_N32_W2", true, OtsParams{Type: 0x02, Hash: SHA256, N: 32, W: 2}},
	{"LMOTS_SHA256_N32_W4", true, OtsParams{Type: 0x03, Hash: SHA256, N: 32, W: 4}},
	{"LMOTS_SHA256_N32_W8", true, OtsParams{Type: 0x04, Hash: SHA256, N: 32, W: 8}},

	{"LMOTS_SHA256_N24_W1", false, OtsParams{Type: 0x05, Hash: SHA256, N: 24, W: 1}},
	{"LMOTS_SHA256_N24_W2", true, OtsParams{Type: 0x06, Hash: SHA256, N: 24, W: 2}},
	{"LMOTS_SHA256_N24_W4", true, OtsParams{Type: 0x07, Hash: SHA256, N: 24, W: 4}},
	{"LMOTS_SHA256_N24_W8", true, OtsParams{Type: 0x08, Hash: SHA256, N: 24, W: 8}},

	{"LMOTS_SHAKE_N32_W1", false, OtsParams{Type: 0x09, Hash: SHAKE256, N: 32, W: 1}},
	{"LMOTS_SHAKE_N32_W2", true, OtsParams{Type: 0x0a, Hash: SHAKE256, N: 32, W: 2}},
	{"LMOTS_SHAKE_N32_W4", true, OtsParams{Type: 0x0b, Hash: SHAKE256, N: 32, W: 4}},
	{"LMOTS_SHAKE_N32_W8", true, OtsParams{Type: 0x0c, Hash: SHAKE256, N: 32, W: 8}},

	{"LMOTS_SHAKE_N24_W1", false, OtsParams{Type: 0x0d, Hash: SHAKE256, N: 24, W: 1}},
	{"LMOTS_SHAKE_N24_W2", true, OtsParams{Type: 0x0e, Hash: SHAKE256, N: 24, W: 2}},
	{"LMOTS_SHAKE_N24_W4", true, OtsParams{Type: 0x0f, Hash: SHAKE256, N: 24, W: 4}},
	{"LMOTS_SHAKE_N24_W8", true, OtsParams{Type: 0x10, Hash: SHAKE256, N: 24, W: 8}},
}

// Registry of LMS algorithms from RFC 8554 and NIST SP 800-208.
// Height 25 is not supported.
var lmsRegistry []lmsRegEntry = []lmsRegEntry{
	{"LMS_SHA256_M32_H5", true, Params{0x05, SHA256, 32, 5}},
	{"LMS_SHA256_M32_H10", true, Params{0x06, SHA256, 32, 10}},
	{"LMS_SHA256_M32_H15", true, Params{0x07, SHA256, 32, 15}},
	{"LMS_SHA256_M32_H20", true, Params{0x08, SHA256, 32, 20}},
	{"LMS_SHA256_M32_H25", false, Params{0x09, SHA256, 32, 25}},

	{"LMS_SHA256_M24_H5", true, Params{0x0a, SHA256, 24, 5}},
	{"LMS_SHA256_M24_H10", true, Params{0x0b, SHA256, 24, 10}},
	{"LMS_SHA256_M24_H15", true, Params{0x0c, SHA256, 24, 15}},
	{"LMS_SHA256_M24_H20", true, Params{0x0d, SHA256, 24, 20}},
	{"LMS_SHA256_M24_H25", false, Params{0x0e, SHA256, 24, 25}},

	{"LMS_SHAKE_M32_H5", true, Params{0x0f, SHAKE256, 32, 5}},
	{"LMS_SHAKE_M32_H10", true, Params{0x10, SHAKE256, 32, 10}},
	{"LMS_SHAKE_M32_H15", true, Params{0x11, SHAKE256, 32, 15}},
	{"LMS_SHAKE_M32_H20", true, Params{0x12, SHAKE256, 32, 20}},
	{"LMS_SHAKE_M32_H25", false, Params{0x13, SHAKE256, 32, 25}},

	{"LMS_SHAKE_M24_H5", true, Params{0x14, SHAKE256, 24, 5}},
	{"LMS_SHAKE_M24_H10", true, Params{0x15, SHAKE256, 24, 10}},
	{"LMS_SHAKE_M24_H15", true, Params{0x16, SHAKE256, 24, 15}},
	{"LMS_SHAKE_M24_H20", true, Params{0x17, SHAKE256, 24, 20}},
	{"LMS_SHAKE_M24_H25", false, Params{0x18, SHAKE256, 24, 25}},
}

var otsRegistryLut map[OtsType]otsRegEntry
var otsRegistryNameLut map[string]otsRegEntry
var lmsRegistryLut map[LmsType]lmsRegEntry
var lmsRegistryNameLut map[string]lmsRegEntry

// Largest number of chains and hash length over the supported
// LM-OTS algorithms; used to size scratch pads.
var maxOtsP, maxN uint32

// Initializes algorithm lookup tables.
func init() {
	otsRegistryLut = make(map[OtsType]otsRegEntry)
	otsRegistryNameLut = make(map[string]otsRegEntry)
	lmsRegistryLut = make(map[LmsType]lmsRegEntry)
	lmsRegistryNameLut = make(map[string]lmsRegEntry)

	for i := range otsRegistry {
		entry := &otsRegistry[i]
		entry.params.derive()
		otsRegistryLut[entry.params.Type] = *entry
		otsRegistryNameLut[entry.name] = *entry
		if entry.supported && entry.params.P > maxOtsP {
			maxOtsP = entry.params.P
		}
		if entry.params.N > maxN {
			maxN = entry.params.N
		}
	}
	for _, entry := range lmsRegistry {
		lmsRegistryLut[entry.params.Type] = entry
		lmsRegistryNameLut[entry.name] = entry
	}
}

// Fills in the derived LM-OTS parameters, see RFC 8554 appendix B.
func (p *OtsParams) derive() {
	p.U = 8 * p.N / p.W

	// v = ceil((floor(lg((2^w - 1) * u)) + 1) / w)
	maxSum := ((uint32(1) << p.W) - 1) * p.U
	var bits uint32
	for maxSum > 0 {
		bits++
		maxSum >>= 1
	}
	p.V = (bits + p.W - 1) / p.W
	p.Ls = 16 - p.V*p.W
	p.P = p.U + p.V
	p.SigLen = 4 + p.N*(p.P+1)
}

// Returns 2^w - 1: the largest value of a digit.
func (p *OtsParams) Mask() uint32 {
	return (uint32(1) << p.W) - 1
}

// Returns the name of the LM-OTS algorithm.
func (p *OtsParams) Name() string {
	return p.Type.String()
}

// Returns the length of the authentication path.
func (p *Params) PathLen() uint32 {
	return p.M * p.H
}

// Returns the length of an LMS public key: type, OTS type, I and T.
func (p *Params) PublicKeyLen() uint32 {
	return 8 + idLen + p.M
}

// Returns the length of an LMS signature made with the given
// LM-OTS algorithm.
func (p *Params) SignatureLen(ots *OtsParams) uint32 {
	return 4 + ots.SigLen + 4 + p.PathLen()
}

// Returns the number of leaves (and so one-time keys) of the tree.
func (p *Params) Leaves() uint64 {
	return uint64(1) << p.H
}

// Returns the name of the LMS algorithm.
func (p *Params) Name() string {
	return p.Type.String()
}

// Looks up the parameters of the given LM-OTS type.
//
// Returns an error with code ErrUnsupportedType for unknown, reserved or
// unsupported types.
func OtsLookup(t OtsType) (*OtsParams, Error) {
	entry, ok := otsRegistryLut[t]
	if !ok {
		return nil, errorf(ErrUnsupportedType,
			"unknown LM-OTS type 0x%08x", uint32(t))
	}
	if !entry.supported {
		return nil, errorf(ErrUnsupportedType, "%s is not supported",
			entry.name)
	}

	// Read the matched entry back before trusting it.
	if entry.params.Type != t || otsRegistryLut[t].params.Type != t {
		return nil, errorf(ErrGlitchDetected,
			"LM-OTS table lookup for 0x%08x returned 0x%08x",
			uint32(t), uint32(entry.params.Type))
	}
	return &entry.params, nil
}

// Looks up the parameters of the given LMS type.
//
// Returns an error with code ErrUnsupportedType for unknown, reserved or
// unsupported types.
func LmsLookup(t LmsType) (*Params, Error) {
	entry, ok := lmsRegistryLut[t]
	if !ok {
		return nil, errorf(ErrUnsupportedType,
			"unknown LMS type 0x%08x", uint32(t))
	}
	if !entry.supported {
		return nil, errorf(ErrUnsupportedType, "%s is not supported",
			entry.name)
	}

	if entry.params.Type != t || lmsRegistryLut[t].params.Type != t {
		return nil, errorf(ErrGlitchDetected,
			"LMS table lookup for 0x%08x returned 0x%08x",
			uint32(t), uint32(entry.params.Type))
	}
	return &entry.params, nil
}

// Returns parameters for the named LMS instance (and nil if there is no
// such supported algorithm).
func ParamsFromName(name string) *Params {
	entry, ok := lmsRegistryNameLut[name]
	if !ok || !entry.supported {
		return nil
	}
	return &entry.params
}

// Returns parameters for the named LM-OTS instance (and nil if there is no
// such supported algorithm).
func OtsParamsFromName(name string) *OtsParams {
	entry, ok := otsRegistryNameLut[name]
	if !ok || !entry.supported {
		return nil
	}
	return &entry.params
}

func (t OtsType) String() string {
	if entry, ok := otsRegistryLut[t]; ok {
		return entry.name
	}
	return fmt.Sprintf("LMOTS_0x%08x", uint32(t))
}

func (t LmsType) String() string {
	if entry, ok := lmsRegistryLut[t]; ok {
		return entry.name
	}
	return fmt.Sprintf("LMS_0x%08x", uint32(t))
}

// List all supported LMS instances
func ListNames() (names []string) {
	for _, entry := range lmsRegistry {
		if entry.supported {
			names = append(names, entry.name)
		}
	}
	return
}

// List all supported LM-OTS instances
func ListOtsNames() (names []string) {
	for _, entry := range otsRegistry {
		if entry.supported {
			names = append(names, entry.name)
		}
	}
	return
}
