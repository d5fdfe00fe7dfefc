package lms

// Returns the i-th w-bit digit of s, most significant bits first.
// w must be 1, 2, 4 or 8 and s must hold at least (i+1)*w bits.
func Coeff(s []byte, i, w uint32) uint32 {
	mask := (uint32(1) << w) - 1
	return mask & uint32(s[i*w/8]>>(8-(w*(i%(8/w))+w)))
}

// Computes the LM-OTS checksum of digest: the sum of 2^w - 1 - digit over
// all w-bit digits of digest, shifted left by ls.
func Checksum(digest []byte, w, ls uint32) (uint16, Error) {
	if len(digest) == 0 {
		return 0, errorf(ErrInvalidParam, "checksum of empty digest")
	}
	if w != 1 && w != 2 && w != 4 && w != 8 {
		return 0, errorf(ErrInvalidParam, "Winternitz width %d", w)
	}
	mask := (uint32(1) << w) - 1
	u := 8 * uint32(len(digest)) / w
	var sum uint32
	var i uint32
	for i = 0; i < u; i++ {
		sum += mask - Coeff(digest, i, w)
	}
	return uint16(sum << ls), nil
}

// Computes the candidate LM-OTS public key Kc from the LM-OTS signature
// sig (type || C || y[0] || ... || y[p-1]) of the message hash Q.
// Q must be written to the first n bytes of pad.digest before the call.
// Kc is written to pad.kc.
func (pad *scratchPad) otsCandidateKey(op *OtsParams, sig []byte,
	expected OtsType, addr address) Error {
	if len(sig) < 4 {
		return errorf(ErrInvalidParam, "LM-OTS signature of %d bytes",
			len(sig))
	}
	if sigType := OtsType(decodeUint32(sig)); sigType != expected {
		return errorf(ErrTypeMismatch, "LM-OTS signature is %v instead of %v",
			sigType, expected)
	}
	if op.Type != expected {
		return errorf(ErrTypeMismatch, "parameters for %v instead of %v",
			op.Type, expected)
	}
	if uint32(len(sig)) != op.SigLen {
		return errorf(ErrLengthMismatch,
			"%v signature is %d bytes instead of %d",
			op.Type, len(sig), op.SigLen)
	}

	n := op.N
	mask := op.Mask()
	y := sig[4+n:]

	// Q || Cksm(Q)
	cksm, err := Checksum(pad.digest[:n], op.W, op.Ls)
	if err != nil {
		return err
	}
	encodeUint64Into(uint64(cksm), pad.digest[n:n+2])
	qCksm := pad.digest[:n+2]

	tmp := pad.chain[chainAddrLen : chainAddrLen+n]
	var i uint32
	for i = 0; i < op.P; i++ {
		a := Coeff(qCksm, i, op.W)
		copy(tmp, y[i*n:(i+1)*n])
		for j := a; j < mask; j++ {
			addr.writeChainInto(pad.chain, uint16(i), uint8(j))
			if err := pad.hash(tmp, pad.chain[:chainAddrLen+n]); err != nil {
				return err
			}
		}
		copy(pad.z[i*n:(i+1)*n], tmp)
	}

	addr.writeDomainInto(pad.node, D_PBLC)
	return pad.hash(pad.kc[:n], pad.node[:nodeAddrLen], pad.z[:op.P*n])
}
