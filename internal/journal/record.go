package journal

import (
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

const headerLen = 8

func encodeHeader(tsMs int64) []byte {
	var h [headerLen]byte
	binary.BigEndian.PutUint64(h[:], uint64(tsMs))
	return h[:]
}

func headerTimestamp(h []byte) (int64, bool) {
	if len(h) < headerLen {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(h[:headerLen])), true
}

func encodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

type decoded struct {
	header  []byte
	payload []byte
}

func decodeRecord(b []byte) (decoded, bool) {
	if len(b) < 1+4 {
		return decoded{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || n+int(hlen)+4 > len(b) {
		return decoded{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return decoded{}, false
	}
	return decoded{header: append([]byte(nil), header...), payload: append([]byte(nil), payload...)}, true
}
