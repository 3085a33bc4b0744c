package recomposer

// expandTemplate expands a user SysEx template (or an inline 0x98 SysEx
// body) against the two command parameters and the current MIDI channel,
// substituting the escape bytes the format reserves in the 0x80-0x84 and
// 0xF7 range and tracking a running Roland-style checksum. It stops at
// the first 0xF7 escape (SysEx terminator) or at the end of src,
// whichever comes first, and appends a trailing 0xF7 if one wasn't
// already emitted.
func expandTemplate(src []byte, p1, p2, channel byte) []byte {
	dst := make([]byte, 0, len(src)+1)
	var checksum byte

	for _, b := range src {
		if b&0x80 == 0 {
			dst = append(dst, b)
			checksum += b
			continue
		}
		switch b {
		case 0x80:
			dst = append(dst, p1)
			checksum += p1
		case 0x81:
			dst = append(dst, p2)
			checksum += p2
		case 0x82:
			dst = append(dst, channel)
			checksum += channel
		case 0x83:
			checksum = 0
		case 0x84:
			dst = append(dst, (0x100-checksum)&0x7F)
		case 0xF7:
			dst = append(dst, 0xF7)
			return dst
		default:
			// Unknown escape: drop it, matching the source's
			// "log and continue" behavior for this malformed case.
		}
	}

	if len(dst) == 0 || dst[len(dst)-1] != 0xF7 {
		dst = append(dst, 0xF7)
	}
	return dst
}
