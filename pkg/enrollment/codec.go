package enrollment

import (
	"encoding/binary"
	"fmt"
	"math"
)

// 向量文件格式：4 字节魔数 + uint32 维度 + 小端 float64 序列
var vectorMagic = [4]byte{'L', 'V', 'E', 'C'}

const headerSize = 4 + 4

// EncodeVector 将嵌入向量编码为定长二进制记录
func EncodeVector(embedding []float64) []byte {
	buf := make([]byte, headerSize+8*len(embedding))
	copy(buf[0:4], vectorMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(embedding)))
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[headerSize+i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeVector 解码二进制记录为嵌入向量
func DecodeVector(data []byte) ([]float64, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrStorage, len(data))
	}
	if [4]byte(data[0:4]) != vectorMagic {
		return nil, fmt.Errorf("%w: bad record magic", ErrStorage)
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	if len(data) != headerSize+8*dim {
		return nil, fmt.Errorf("%w: truncated record (dim %d, %d bytes)", ErrStorage, dim, len(data))
	}
	out := make([]float64, dim)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[headerSize+i*8:]))
	}
	return out, nil
}
