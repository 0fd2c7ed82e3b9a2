package ot

// ChecksumAdjustmentMagic is the constant from which the checksum of a whole font
// is subtracted to get the value of head.checkSumAdjustment.
const ChecksumAdjustmentMagic uint32 = 0xB1B0AFBA

// Checksum calculates the checksum of a table. The table data is interpreted as
// a sequence of big-endian uint32 values, with a final short word padded with
// zeros. Values are summed up modulo 2^32.
func Checksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += u32(b[i:])
	}
	if n < len(b) {
		var last [4]byte
		copy(last[:], b[n:])
		sum += u32(last[:])
	}
	return sum
}

// HeadChecksum calculates the checksum of a head table. Field checkSumAdjustment
// of table head is treated as if it were zero.
func HeadChecksum(head []byte) uint32 {
	sum := Checksum(head)
	if len(head) >= HeadCheckSumAdjustmentOffset+4 {
		sum -= u32(head[HeadCheckSumAdjustmentOffset:])
	}
	return sum
}

// TableChecksum calculates the checksum of a table, treating table head specially.
func TableChecksum(tag Tag, b []byte) uint32 {
	if tag == T("head") {
		return HeadChecksum(b)
	}
	return Checksum(b)
}

// VerifyChecksums compares the checksums stored in the table directory with
// the checksums calculated from the table data. The checksum of table head
// depends on the whole font and is calculated with checkSumAdjustment set to zero.
// The first mismatch found is returned as an error of kind ErrChecksumMismatch.
func (otf *Font) VerifyChecksums() error {
	for _, rec := range otf.directory {
		b := otf.binary[rec.Offset : rec.Offset+rec.Length]
		if sum := TableChecksum(rec.Tag, b); sum != rec.Checksum {
			tracer().Infof("checksum mismatch for table %s", rec.Tag)
			return ErrChecksumFor(rec.Tag, rec.Checksum, sum)
		}
	}
	return nil
}
