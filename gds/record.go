package gds

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Record tags (GDSII Stream Format, high byte of the record's second word).
type tag byte

const (
	tagHEADER       tag = 0x00
	tagBGNLIB       tag = 0x01
	tagLIBNAME      tag = 0x02
	tagUNITS        tag = 0x03
	tagENDLIB       tag = 0x04
	tagBGNSTR       tag = 0x05
	tagSTRNAME      tag = 0x06
	tagENDSTR       tag = 0x07
	tagBOUNDARY     tag = 0x08
	tagPATH         tag = 0x09
	tagSREF         tag = 0x0A
	tagAREF         tag = 0x0B
	tagTEXT         tag = 0x0C
	tagLAYER        tag = 0x0D
	tagDATATYPE     tag = 0x0E
	tagWIDTH        tag = 0x0F
	tagXY           tag = 0x10
	tagENDEL        tag = 0x11
	tagSNAME        tag = 0x12
	tagCOLROW       tag = 0x13
	tagTEXTNODE     tag = 0x14
	tagNODE         tag = 0x15
	tagTEXTTYPE     tag = 0x16
	tagPRESENTATION tag = 0x17
	tagSPACING      tag = 0x18
	tagSTRING       tag = 0x19
	tagSTRANS       tag = 0x1A
	tagMAG          tag = 0x1B
	tagANGLE        tag = 0x1C
	tagUINTEGER     tag = 0x1D
	tagUSTRING      tag = 0x1E
	tagREFLIBS      tag = 0x1F
	tagFONTS        tag = 0x20
	tagPATHTYPE     tag = 0x21
	tagGENERATIONS  tag = 0x22
	tagATTRTABLE    tag = 0x23
	tagSTYPTABLE    tag = 0x24
	tagSTRTYPE      tag = 0x25
	tagELFLAGS      tag = 0x26
	tagELKEY        tag = 0x27
	tagLINKTYPE     tag = 0x28
	tagLINKKEYS     tag = 0x29
	tagNODETYPE     tag = 0x2A
	tagPROPATTR     tag = 0x2B
	tagPROPVALUE    tag = 0x2C
	tagBOX          tag = 0x2D
	tagBOXTYPE      tag = 0x2E
	tagPLEX         tag = 0x2F
	tagBGNEXTN      tag = 0x30 // deprecated, spec.md §4.1 "deprecated record fallback"
	tagENDEXTN      tag = 0x31 // deprecated
	tagTAPENUM      tag = 0x32
	tagTAPECODE     tag = 0x33
	tagSTRCLASS     tag = 0x34
	tagFORMAT       tag = 0x36
	tagMASK         tag = 0x37
	tagENDMASKS     tag = 0x38
	tagLIBDIRSIZE   tag = 0x39
	tagSRFNAME      tag = 0x3A
	tagLIBSECUR     tag = 0x3B
)

// dataType is the low byte of the record header, identifying payload shape.
type dataType byte

const (
	dtNoData  dataType = 0
	dtBitArr  dataType = 1
	dtInt16   dataType = 2
	dtInt32   dataType = 3
	dtReal4   dataType = 4
	dtReal8   dataType = 5
	dtASCII   dataType = 6
)

// record is one decoded GDSII stream record: a tag, a data type, and its
// raw payload bytes (not yet interpreted as int16/int32/real8/ASCII).
type record struct {
	tag     tag
	dt      dataType
	payload []byte
	offset  int64 // byte offset of this record's length word in the stream
}

// recordReader reads length-prefixed GDSII records off an io.Reader,
// tracking the byte offset for ParseError reporting.
type recordReader struct {
	r      io.Reader
	offset int64
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: r}
}

// next reads the next record, or io.EOF at a clean stream end.
func (rr *recordReader) next() (record, error) {
	startOffset := rr.offset
	var header [4]byte
	n, err := io.ReadFull(rr.r, header[:])
	if err == io.ErrUnexpectedEOF || (n > 0 && n < 4 && err == io.EOF) {
		return record{}, &ParseError{Stage: "record", Offset: startOffset, Cause: ErrTruncatedStream}
	}
	if err == io.EOF {
		return record{}, io.EOF
	}
	if err != nil {
		return record{}, &ParseError{Stage: "record", Offset: startOffset, Cause: err}
	}
	rr.offset += 4

	length := binary.BigEndian.Uint16(header[0:2])
	if length < 4 {
		return record{}, &ParseError{Stage: "record", Offset: startOffset, Cause: ErrMalformedLength}
	}
	payloadLen := int(length) - 4

	rec := record{
		tag:    tag(header[2]),
		dt:     dataType(header[3]),
		offset: startOffset,
	}
	if payloadLen > 0 {
		rec.payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(rr.r, rec.payload); err != nil {
			return record{}, &ParseError{Stage: "record", Offset: startOffset, Cause: ErrTruncatedStream}
		}
		rr.offset += int64(payloadLen)
	}
	return rec, nil
}

// int16s interprets the payload as a sequence of big-endian int16 values.
func (rec record) int16s() []int16 {
	n := len(rec.payload) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.BigEndian.Uint16(rec.payload[i*2:]))
	}
	return out
}

// int32s interprets the payload as a sequence of big-endian int32 values,
// used for XY coordinate arrays.
func (rec record) int32s() []int32 {
	n := len(rec.payload) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(binary.BigEndian.Uint32(rec.payload[i*4:]))
	}
	return out
}

// real8s interprets the payload as a sequence of GDSII Excess-64 doubles
// (used by UNITS records).
func (rec record) real8s() []float64 {
	n := len(rec.payload) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = decodeExcess64(rec.payload[i*8 : i*8+8])
	}
	return out
}

// ascii trims the trailing NUL pad byte GDSII uses for odd-length strings.
func (rec record) ascii() string {
	b := rec.payload
	if len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// decodeExcess64 decodes an 8-byte GDSII "Excess-64" floating point value:
// 1 sign bit, 7-bit excess-64 base-16 exponent, 56-bit fraction.
//
//	value = (-1)^sign * 16^(exponent-64) * 0.fraction
func decodeExcess64(b []byte) float64 {
	if len(b) != 8 {
		return 0
	}
	bits := binary.BigEndian.Uint64(b)
	sign := 1.0
	if bits&0x8000000000000000 != 0 {
		sign = -1.0
	}
	exponent := int((bits >> 56) & 0x7F)
	mantissa := bits & 0x00FFFFFFFFFFFFFF
	if mantissa == 0 {
		return 0
	}
	frac := float64(mantissa) / float64(uint64(1)<<56)
	return sign * frac * math.Pow(16, float64(exponent-64))
}

func (t tag) String() string {
	return fmt.Sprintf("0x%02X", byte(t))
}
