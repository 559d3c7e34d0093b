package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	imageMagic   = "WEEB"
	imageVersion = 1
)

var ErrBadImage = errors.New("not a weebasic bytecode image")

type image struct {
	Magic     string        `cbor:"1,keyasint"`
	Version   uint          `cbor:"2,keyasint"`
	NumLocals int           `cbor:"3,keyasint"`
	Insns     []Instruction `cbor:"4,keyasint"`
}

// canonical mode keeps images byte-for-byte reproducible
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalImage serializes a program to CBOR bytes
func MarshalImage(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(image{
		Magic:     imageMagic,
		Version:   imageVersion,
		NumLocals: p.numLocals,
		Insns:     p.insns,
	})
}

// UnmarshalImage deserializes a program, refusing more than maxInsns instructions
func UnmarshalImage(data []byte, maxInsns int) (*Program, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	if img.Magic != imageMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadImage, img.Magic)
	}

	if img.Version != imageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadImage, img.Version)
	}

	if len(img.Insns) > maxInsns {
		return nil, fmt.Errorf("%w: %d instructions, limit is %d", ErrProgramTooLarge, len(img.Insns), maxInsns)
	}

	p := NewProgram(maxInsns)
	p.insns = append(p.insns, img.Insns...)
	p.numLocals = img.NumLocals
	return p, nil
}
