// Package persistence implements the on-disk container for index
// generations: a fixed binary header carrying the index dimensions, followed
// by a stream of independently compressed, CRC32C-checksummed sections.
//
// Files are written to a temporary name and renamed into place, so a crash
// mid-write never leaves a truncated generation under the final name.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic identifies seqgo generation files (ASCII "SQG1").
	Magic = 0x53514731
	// Version is the current container format version.
	Version = 0x00010000

	headerSize  = 64
	sectionSize = 28 // id u32, comp u8, pad u8[3], uncompressed u64, stored u64, crc u32
)

// Kind distinguishes the two index generations.
type Kind uint8

const (
	KindForward Kind = 1
	KindReverse Kind = 2
)

// SectionID identifies a payload section within a generation file.
type SectionID uint32

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported format version")
	ErrNoSuchSection  = errors.New("persistence: section not present")
)

// Header is the fixed-size file header. All integers are little endian.
type Header struct {
	Kind              Kind
	Alphabet          uint8
	SeqNoBits         uint8
	SeqPosBits        uint8
	TotalLenBits      uint8
	Compression       Compression
	SamplingRate      uint16
	SequenceCount     uint64
	MaxSequenceLength uint64
	TotalLength       uint64
}

func (h Header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], Magic)
	binary.LittleEndian.PutUint32(buf[4:], Version)
	buf[8] = byte(h.Kind)
	buf[9] = h.Alphabet
	buf[10] = h.SeqNoBits
	buf[11] = h.SeqPosBits
	buf[12] = h.TotalLenBits
	buf[13] = byte(h.Compression)
	binary.LittleEndian.PutUint16(buf[14:], h.SamplingRate)
	binary.LittleEndian.PutUint64(buf[16:], h.SequenceCount)
	binary.LittleEndian.PutUint64(buf[24:], h.MaxSequenceLength)
	binary.LittleEndian.PutUint64(buf[32:], h.TotalLength)
	// buf[40:64] reserved
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("persistence: short header (%d bytes)", len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:]) != Magic {
		return Header{}, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(buf[4:]) != Version {
		return Header{}, ErrInvalidVersion
	}
	return Header{
		Kind:              Kind(buf[8]),
		Alphabet:          buf[9],
		SeqNoBits:         buf[10],
		SeqPosBits:        buf[11],
		TotalLenBits:      buf[12],
		Compression:       Compression(buf[13]),
		SamplingRate:      binary.LittleEndian.Uint16(buf[14:]),
		SequenceCount:     binary.LittleEndian.Uint64(buf[16:]),
		MaxSequenceLength: binary.LittleEndian.Uint64(buf[24:]),
		TotalLength:       binary.LittleEndian.Uint64(buf[32:]),
	}, nil
}

type sectionHeader struct {
	id           SectionID
	comp         Compression
	uncompressed uint64
	stored       uint64
	crc          uint32
}

func (s sectionHeader) encode() []byte {
	buf := make([]byte, sectionSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(s.id))
	buf[4] = byte(s.comp)
	binary.LittleEndian.PutUint64(buf[8:], s.uncompressed)
	binary.LittleEndian.PutUint64(buf[16:], s.stored)
	binary.LittleEndian.PutUint32(buf[24:], s.crc)
	return buf
}

func decodeSectionHeader(buf []byte) (sectionHeader, error) {
	if len(buf) < sectionSize {
		return sectionHeader{}, fmt.Errorf("persistence: short section header (%d bytes)", len(buf))
	}
	return sectionHeader{
		id:           SectionID(binary.LittleEndian.Uint32(buf[0:])),
		comp:         Compression(buf[4]),
		uncompressed: binary.LittleEndian.Uint64(buf[8:]),
		stored:       binary.LittleEndian.Uint64(buf[16:]),
		crc:          binary.LittleEndian.Uint32(buf[24:]),
	}, nil
}
